package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/okian/riskpoll/internal/domain/model"
	"github.com/okian/riskpoll/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

func groupsOf(risk string, recs ...model.Record) model.Groups {
	b := model.NewGroupsBuilder()
	b.Add(risk, recs...)
	return b.Groups()
}

func TestBrackets(t *testing.T) {
	Convey("Given the default brackets", t, func() {
		brackets := report.DefaultBrackets()

		Convey("Then boundary ages should land in their own inclusive bracket", func() {
			cases := map[float64]string{
				1: "1-15", 15: "1-15",
				16: "16-39", 39: "16-39",
				40: "40-49", 49: "40-49",
				50: "50-59", 59: "50-59",
				60: "60+", 150: "60+",
			}
			for age, label := range cases {
				i := report.BracketIndex(brackets, age)
				So(i, ShouldBeGreaterThanOrEqualTo, 0)
				So(brackets[i].Label, ShouldEqual, label)
			}
		})

		Convey("And ages outside every bracket should map to none", func() {
			for _, age := range []float64{0, -3, 0.5, 15.5, 151, 1000} {
				So(report.BracketIndex(brackets, age), ShouldEqual, -1)
			}
		})

		Convey("And callers should not be able to mutate the defaults", func() {
			brackets[0].Max = 99
			So(report.DefaultBrackets()[0].Max, ShouldEqual, 15)
		})
	})
}

func TestGenderClassifier(t *testing.T) {
	Convey("Given the default classifier", t, func() {
		c := report.DefaultGenderClassifier()

		Convey("Then only the exact literals should be recognised", func() {
			So(c.Classify("male"), ShouldEqual, report.CategoryMale)
			So(c.Classify("female"), ShouldEqual, report.CategoryFemale)
			for _, g := range []model.Gender{"", "Male", "3", "other", " male", "ชาย"} {
				So(c.Classify(g), ShouldEqual, report.CategoryOther)
			}
		})
	})

	Convey("Given a classifier with localized literals", t, func() {
		c := report.GenderClassifier{Male: "ชาย", Female: "หญิง"}

		Convey("Then those literals should be recognised instead", func() {
			So(c.Classify("ชาย"), ShouldEqual, report.CategoryMale)
			So(c.Classify("หญิง"), ShouldEqual, report.CategoryFemale)
			So(c.Classify("male"), ShouldEqual, report.CategoryOther)
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a report builder", t, func() {
		b := report.NewBuilder()

		Convey("When one group has a male 45 and a female 10", func() {
			r := b.Build(groupsOf("70",
				model.Record{Gender: "male", Age: 45},
				model.Record{Gender: "female", Age: 10},
			))

			Convey("Then the row should show exactly those tallies", func() {
				row, ok := r.Row("70")
				So(ok, ShouldBeTrue)
				So(row.Male, ShouldEqual, 1)
				So(row.Female, ShouldEqual, 1)
				So(row.Other, ShouldEqual, 0)
				So(row.Ages, ShouldResemble, []int{1, 0, 1, 0, 0})
				So(r.TotalRecords, ShouldEqual, 2)
			})
		})

		Convey("When ages fall outside every bracket", func() {
			r := b.Build(groupsOf("20",
				model.Record{Gender: "male", Age: 0},
				model.Record{Gender: "female", Age: 200},
				model.Record{Gender: "", Age: -1},
			))

			Convey("Then only the gender columns should move", func() {
				row := r.Rows[0]
				So(row.Male, ShouldEqual, 1)
				So(row.Female, ShouldEqual, 1)
				So(row.Other, ShouldEqual, 1)
				So(row.Ages, ShouldResemble, []int{0, 0, 0, 0, 0})
			})
		})

		Convey("When several groups exist", func() {
			gb := model.NewGroupsBuilder()
			gb.Add("90", model.Record{Gender: "7", Age: 61})
			gb.Add("10", model.Record{Gender: "female", Age: 55})
			gb.Add("empty")
			r := b.Build(gb.Groups())

			Convey("Then rows should follow store order, including empty groups", func() {
				So(r.Rows, ShouldHaveLength, 3)
				So(r.Rows[0].RiskPercentage, ShouldEqual, "90")
				So(r.Rows[0].Other, ShouldEqual, 1)
				So(r.Rows[0].Ages, ShouldResemble, []int{0, 0, 0, 0, 1})
				So(r.Rows[1].RiskPercentage, ShouldEqual, "10")
				So(r.Rows[1].Ages, ShouldResemble, []int{0, 0, 0, 1, 0})
				So(r.Rows[2].RiskPercentage, ShouldEqual, "empty")
				So(r.Rows[2].Ages, ShouldResemble, []int{0, 0, 0, 0, 0})
			})

			Convey("And building twice should give identical counts", func() {
				So(b.Build(gb.Groups()), ShouldResemble, r)
			})
		})

		Convey("When the store is empty", func() {
			r := b.Build(model.Groups{})

			Convey("Then there should be no rows", func() {
				So(r.Rows, ShouldBeEmpty)
				So(r.Brackets, ShouldHaveLength, 5)
			})
		})
	})

	Convey("Given a builder with custom options", t, func() {
		b := report.NewBuilder(
			report.WithBrackets([]report.Bracket{{Label: "kids", Min: 0, Max: 12}}),
			report.WithGenderClassifier(report.GenderClassifier{Male: "m", Female: "f"}),
			report.WithGenderClassifier(report.GenderClassifier{Male: "", Female: "ignored"}),
		)
		r := b.Build(groupsOf("1", model.Record{Gender: "m", Age: 0}, model.Record{Gender: "male", Age: 5}))

		Convey("Then the custom brackets and literals should apply", func() {
			So(r.Brackets, ShouldHaveLength, 1)
			So(r.Rows[0].Male, ShouldEqual, 1)
			So(r.Rows[0].Other, ShouldEqual, 1)
			So(r.Rows[0].Ages, ShouldResemble, []int{2})
		})
	})
}

func TestWriteHTML(t *testing.T) {
	Convey("Given a report", t, func() {
		gb := model.NewGroupsBuilder()
		gb.Add("70", model.Record{Gender: "male", Age: 45}, model.Record{Gender: "female", Age: 10})
		gb.Add("<script>", model.Record{Gender: "x", Age: 30})
		r := report.NewBuilder().Build(gb.Groups())

		Convey("When rendering HTML", func() {
			var buf bytes.Buffer
			err := report.WriteHTML(&buf, r)
			out := buf.String()

			Convey("Then it should contain the header and one row per group", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "<table border=1 cellpadding=8>")
				So(out, ShouldContainSubstring, "<th>Risk %</th><th>Male</th><th>Female</th><th>Other</th><th>1-15</th><th>16-39</th><th>40-49</th><th>50-59</th><th>60&#43;</th>")
				So(out, ShouldContainSubstring, "<tr><td>70</td><td>1</td><td>1</td><td>0</td><td>1</td><td>0</td><td>1</td><td>0</td><td>0</td></tr>")
				So(strings.Count(out, "<tr>"), ShouldEqual, 3)
			})

			Convey("And risk keys should be escaped", func() {
				So(out, ShouldNotContainSubstring, "<script>")
				So(out, ShouldContainSubstring, "&lt;script&gt;")
			})
		})
	})
}
