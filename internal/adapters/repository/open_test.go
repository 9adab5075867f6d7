package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	Convey("Given store options", t, func() {
		dataFile := filepath.Join(t.TempDir(), "data.json")

		Convey("When the backend is file", func() {
			st, err := Open(ctx, Options{Backend: BackendFile, DataFile: dataFile})
			So(err, ShouldBeNil)
			So(st.Backend(), ShouldEqual, BackendFile)
			So(st.Close(), ShouldBeNil)
		})

		Convey("When the backend is badger", func() {
			st, err := Open(ctx, Options{Backend: BackendBadger, Badger: BadgerConfig{InMemory: true}})
			So(err, ShouldBeNil)
			So(st.Backend(), ShouldEqual, BackendBadger)
			So(st.Close(), ShouldBeNil)
		})

		Convey("When the backend is auto without a mongo uri", func() {
			st, err := Open(ctx, Options{DataFile: dataFile})
			So(err, ShouldBeNil)
			So(st.Backend(), ShouldEqual, BackendFile)
		})

		Convey("When the backend is auto and mongo is unreachable", func() {
			st, err := Open(ctx, Options{
				DataFile: dataFile,
				Mongo:    MongoConfig{URI: "mongodb://127.0.0.1:1", ConnectTimeout: 200 * time.Millisecond},
			})

			Convey("Then it should fall back to the file store", func() {
				So(err, ShouldBeNil)
				So(st.Backend(), ShouldEqual, BackendFile)
			})
		})

		Convey("When mongo is required but unreachable", func() {
			_, err := Open(ctx, Options{
				Backend: BackendMongo,
				Mongo:   MongoConfig{URI: "mongodb://127.0.0.1:1", ConnectTimeout: 200 * time.Millisecond},
			})
			So(errors.Is(err, ErrStoreUnavailable), ShouldBeTrue)
		})

		Convey("When the backend is unknown", func() {
			_, err := Open(ctx, Options{Backend: "redis"})
			So(errors.Is(err, ErrUnknownBackend), ShouldBeTrue)
		})
	})
}
