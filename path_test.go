package pdfwrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Describe(t *testing.T) {
	catalog := &fakeObject{typ: TypeDict, id: 3}
	kids := &fakeObject{typ: TypeArray}
	page := &fakeObject{typ: TypeDict, id: 4}
	box := &fakeObject{typ: TypeArray}
	num := scalar(TypeInteger, int64(0))

	kidsPath := []PathElement{
		Step(nil, catalog),
		Step(Key("Kids"), kids),
		Step(Index(0), page),
	}
	boxPath := append(append([]PathElement{}, kidsPath...),
		Step(Intern("MediaBox"), box),
		Step(Index(0), num),
	)

	testCases := map[string]struct {
		path       []PathElement
		needParent bool
		fullPath   bool
		want       string
	}{
		"empty":               {want: ""},
		"full":                {path: kidsPath, fullPath: true, want: "(Object 3) /Kids (Object)[0] (Object 4)"},
		"tail":                {path: kidsPath, want: "(Object 4)"},
		"tail of direct":      {path: boxPath, want: "(Object)"},
		"parent of direct":    {path: boxPath, needParent: true, want: "(Object 4) /MediaBox (Object)[0] (Object)"},
		"parent of one level": {path: boxPath[:4], needParent: true, want: "(Object 4) /MediaBox (Object)"},
		"missing":             {path: []PathElement{Step(nil, catalog), Step(Key("Nope"), nil)}, fullPath: true, want: "(Object 3) /Nope  (object not present)"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Describe(tc.path, tc.needParent, tc.fullPath))
		})
	}
}

func Test_Step(t *testing.T) {
	assert.Equal(t, ID(5), Step(nil, &fakeObject{typ: TypeDict, id: 5}).ID)
	assert.Equal(t, InvalidID, Step(Index(1), scalar(TypeNull, nil)).ID)
	assert.Equal(t, InvalidID, Step(Key("X"), nil).ID)
}
