package features_test

import (
	"errors"
	"testing"

	"github.com/okian/homeprice/internal/domain/features"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCatalog(t *testing.T) {
	schema := mustSchema("LivingArea", "One", "Two", "District_Downtown", "District_Hills", "Flooring_Wood")
	district := features.Group{Name: "district", Label: "District", Prefix: "District", Separator: "_", DeriveFromSchema: true}

	Convey("Given a catalog with a derived group", t, func() {
		cat, err := features.NewCatalog(schema, []features.Group{stories, district})
		So(err, ShouldBeNil)

		Convey("Then district options come from the schema", func() {
			groups := cat.Groups()
			So(groups, ShouldHaveLength, 2)
			So(groups[1].Options, ShouldResemble, []string{"Downtown", "Hills"})
			So(groups[0].Label, ShouldEqual, "stories")
		})

		Convey("When selections omit a group", func() {
			choices, err := cat.Choices(map[string]string{"district": "Hills"})

			Convey("Then the first option is used for it", func() {
				So(err, ShouldBeNil)
				So(choices, ShouldHaveLength, 2)
				So(choices[0].Selected, ShouldEqual, "One")
				So(choices[1].Selected, ShouldEqual, "Hills")
			})

			Convey("And the choices build a one-hot vector", func() {
				vec, err := features.Build(schema, nil, choices)
				So(err, ShouldBeNil)
				So(vec, ShouldResemble, features.Vector{0, 1, 0, 0, 1, 0})
			})
		})

		Convey("When an unknown group or option is selected", func() {
			_, errGroup := cat.Choices(map[string]string{"roof": "Tile"})
			_, errOpt := cat.Choices(map[string]string{"district": "Harbor"})

			Convey("Then ErrInvalidChoice is returned", func() {
				So(errors.Is(errGroup, features.ErrInvalidChoice), ShouldBeTrue)
				So(errors.Is(errOpt, features.ErrInvalidChoice), ShouldBeTrue)
			})
		})
	})

	Convey("Given a group whose columns are missing from the schema", t, func() {
		flooring := features.Group{Name: "flooring", Prefix: "Flooring", Separator: "_",
			Options: []string{"Wood", "Tile"}, Default: "Wood"}

		Convey("When validating strictly", func() {
			_, err := features.NewCatalog(schema, []features.Group{flooring})

			Convey("Then startup fails naming the missing column", func() {
				So(errors.Is(err, features.ErrSchemaMismatch), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Flooring_Tile")
			})
		})

		Convey("When validating leniently", func() {
			cat, err := features.NewCatalog(schema, []features.Group{flooring}, features.WithLenientValidation())

			Convey("Then the mismatch is reported as a warning", func() {
				So(err, ShouldBeNil)
				So(cat.Warnings(), ShouldResemble, []string{"flooring.Flooring_Tile"})
			})

			Convey("And the default is used when no selection is made", func() {
				choices, err := cat.Choices(nil)
				So(err, ShouldBeNil)
				So(choices[0].Selected, ShouldEqual, "Wood")
			})
		})
	})

	Convey("Given invalid group declarations", t, func() {
		cases := map[string][]features.Group{
			"duplicate names":  {stories, stories},
			"no options":       {{Name: "roof"}},
			"derive no prefix": {{Name: "zone", DeriveFromSchema: true}},
			"derive no match":  {{Name: "zone", Prefix: "Zone", Separator: "_", DeriveFromSchema: true}},
			"unnamed":          {{Options: []string{"One"}}},
		}
		for name, groups := range cases {
			_, err := features.NewCatalog(schema, groups)
			So(errors.Is(err, features.ErrSchemaMismatch), ShouldBeTrue)
			_ = name
		}

		_, err := features.NewCatalog(schema, []features.Group{{Name: "stories", Options: []string{"One"}, Default: "Two"}})
		So(errors.Is(err, features.ErrInvalidChoice), ShouldBeTrue)
	})
}
