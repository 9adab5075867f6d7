package loadgen

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/okian/riskpoll/internal/domain/model"
)

// Answer pools drawn from by Generate. Ages span every bracket plus a few
// values outside all of them.
var (
	riskChoices   = []string{"10", "20", "30", "40", "50", "60", "70", "80", "90"}
	genderChoices = []model.Gender{"male", "female", "other", ""}
)

const (
	maxAge          = 160
	stringAgeChance = 5 // one in N ages is sent as a numeric string
)

// randIntn returns a uniform int in [0, n) using crypto/rand.
func randIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Generate creates n random submissions.
func Generate(n int) []model.Submission {
	subs := make([]model.Submission, n)
	for i := range subs {
		subs[i] = model.Submission{
			RiskPercentage: riskChoices[randIntn(len(riskChoices))],
			Gender:         genderChoices[randIntn(len(genderChoices))],
			Age:            float64(randIntn(maxAge + 1)),
		}
	}
	return subs
}

// payload is the wire body for one submission. Age is sometimes a numeric
// string to exercise coercion on the server.
type payload struct {
	RiskPercentage string       `json:"riskPercentage"`
	Gender         model.Gender `json:"gender"`
	Age            any          `json:"age"`
}

func toPayload(s model.Submission) payload {
	p := payload{RiskPercentage: s.RiskPercentage, Gender: s.Gender, Age: s.Age}
	if randIntn(stringAgeChance) == 0 {
		p.Age = strconv.FormatFloat(s.Age, 'f', -1, 64)
	}
	return p
}
