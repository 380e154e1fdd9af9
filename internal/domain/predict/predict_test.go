package predict_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/homeprice/internal/domain/features"
	"github.com/okian/homeprice/internal/domain/predict"
	. "github.com/smartystreets/goconvey/convey"
)

func schemaOf(names ...string) features.Schema {
	s, err := features.NewSchema(names)
	if err != nil {
		panic(err)
	}
	return s
}

func TestLinearModel(t *testing.T) {
	schema := schemaOf("LivingArea", "BedroomsTotal", "PoolPrivateYN")

	Convey("Given a linear model", t, func() {
		m, err := predict.NewLinearModel(schema, 50_000, map[string]float64{
			"LivingArea":    200,
			"PoolPrivateYN": 25_000,
		})
		So(err, ShouldBeNil)

		Convey("When predicting", func() {
			y, err := m.Predict(context.Background(), features.Vector{1500, 3, 1})

			Convey("Then it returns intercept plus the weighted sum", func() {
				So(err, ShouldBeNil)
				So(y, ShouldEqual, 50_000+200*1500+25_000)
			})
		})

		Convey("When the vector length does not match", func() {
			_, err := m.Predict(context.Background(), features.Vector{1500})

			Convey("Then it fails with ErrPrediction", func() {
				So(errors.Is(err, predict.ErrPrediction), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := m.Predict(ctx, features.Vector{1, 2, 3})

			So(errors.Is(err, predict.ErrPrediction), ShouldBeTrue)
		})
	})

	Convey("Given a model trained on log1p prices", t, func() {
		m, err := predict.NewLinearModel(schema, math.Log1p(300_000), nil, predict.WithTargetTransform("log1p"))
		So(err, ShouldBeNil)

		y, err := m.Predict(context.Background(), features.Vector{0, 0, 0})
		So(err, ShouldBeNil)
		So(y, ShouldAlmostEqual, 300_000, 0.001)

		Convey("When the transformed output overflows", func() {
			huge, err := predict.NewLinearModel(schema, 1000, nil, predict.WithTargetTransform("log1p"))
			So(err, ShouldBeNil)
			_, err = huge.Predict(context.Background(), features.Vector{0, 0, 0})

			Convey("Then it fails with ErrPrediction", func() {
				So(errors.Is(err, predict.ErrPrediction), ShouldBeTrue)
			})
		})
	})

	Convey("Given coefficients for columns outside the schema", t, func() {
		_, err := predict.NewLinearModel(schema, 0, map[string]float64{"Basement": 1})

		So(errors.Is(err, predict.ErrLoadModel), ShouldBeTrue)
		So(errors.Is(err, features.ErrSchemaMismatch), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "Basement")
	})

	Convey("Given an unknown target transform", t, func() {
		_, err := predict.NewLinearModel(schema, 0, nil, predict.WithTargetTransform("sqrt"))

		So(errors.Is(err, predict.ErrLoadModel), ShouldBeTrue)
	})
}

func TestLoadLinearModel(t *testing.T) {
	schema := schemaOf("LivingArea", "District_St.Helena")

	write := func(content string) string {
		path := filepath.Join(t.TempDir(), "model.yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	Convey("Given a model file with a dotted column name", t, func() {
		path := write("intercept: 1000\ncoefficients:\n  LivingArea: 2\n  District_St.Helena: 500\n")
		m, err := predict.LoadLinearModel(path, schema)
		So(err, ShouldBeNil)

		y, err := m.Predict(context.Background(), features.Vector{10, 1})
		So(err, ShouldBeNil)
		So(y, ShouldEqual, 1000+20+500)
	})

	Convey("Given a model file without coefficients", t, func() {
		_, err := predict.LoadLinearModel(write("intercept: 1\n"), schema)

		So(errors.Is(err, predict.ErrLoadModel), ShouldBeTrue)
	})

	Convey("Given a coefficient that is not a number", t, func() {
		_, err := predict.LoadLinearModel(write("coefficients:\n  LivingArea: big\n"), schema)

		So(errors.Is(err, predict.ErrLoadModel), ShouldBeTrue)
	})

	Convey("Given a missing file", t, func() {
		_, err := predict.LoadLinearModel("/non/existent/model.yaml", schema)

		So(errors.Is(err, predict.ErrLoadModel), ShouldBeTrue)
	})
}

func TestRemoteModel(t *testing.T) {
	schema := schemaOf("LivingArea", "BedroomsTotal")

	Convey("Given a model server", t, func() {
		var got map[string]map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"predictions": [812345.5]}`))
		}))
		defer srv.Close()

		m, err := predict.NewRemoteModel(srv.URL, schema)
		So(err, ShouldBeNil)

		y, err := m.Predict(context.Background(), features.Vector{1500, 3})

		Convey("Then the first prediction is returned", func() {
			So(err, ShouldBeNil)
			So(y, ShouldEqual, 812345.5)
		})

		Convey("And the request carries columns and one row", func() {
			split := got["dataframe_split"]
			So(split["columns"], ShouldResemble, []any{"LivingArea", "BedroomsTotal"})
			So(split["data"], ShouldResemble, []any{[]any{1500.0, 3.0}})
		})
	})

	Convey("Given a model server failing", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		m, _ := predict.NewRemoteModel(srv.URL, schema)
		_, err := m.Predict(context.Background(), features.Vector{1, 2})

		So(errors.Is(err, predict.ErrPrediction), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "status 500")
	})

	Convey("Given a model server returning no predictions", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"predictions": []}`))
		}))
		defer srv.Close()

		m, _ := predict.NewRemoteModel(srv.URL, schema)
		_, err := m.Predict(context.Background(), features.Vector{1, 2})

		So(errors.Is(err, predict.ErrPrediction), ShouldBeTrue)
	})

	Convey("Given a slow model server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		m, _ := predict.NewRemoteModel(srv.URL, schema, predict.WithTimeout(20*time.Millisecond))
		_, err := m.Predict(context.Background(), features.Vector{1, 2})

		So(errors.Is(err, predict.ErrPrediction), ShouldBeTrue)
	})

	Convey("Given no url", t, func() {
		_, err := predict.NewRemoteModel("", schema)

		So(errors.Is(err, predict.ErrLoadModel), ShouldBeTrue)
	})
}
