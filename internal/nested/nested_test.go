package nested

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestListPreservesSourceOrder(t *testing.T) {
	payload := `[{"id": 28, "name": "Action"}, {"id": 12, "name": "Adventure"}]`

	got, err := List[IDName]("genres", payload)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []IDName{{28, "Action"}, {12, "Adventure"}}
	if len(got) != len(want) {
		t.Fatalf("got %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEmptyPayloads(t *testing.T) {
	for _, payload := range []string{"", "   ", "[]"} {
		n := 0
		err := Elements("keywords", payload, func(IDName) error { n++; return nil })
		if err != nil {
			t.Fatalf("payload %q: %v", payload, err)
		}
		if n != 0 {
			t.Fatalf("payload %q yielded %d elements, want 0", payload, n)
		}
	}
}

func TestMalformedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"truncated list", `[{"id": 1, "name": "A"}`},
		{"not json", `id=1;name=A`},
		{"object instead of list", `{"id": 1, "name": "A"}`},
		{"scalar element", `[42]`},
		{"trailing data", `[] {"id": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := List[IDName]("genres", tc.payload)
			if !errors.Is(err, ErrMalformedField) {
				t.Fatalf("err = %v, want ErrMalformedField", err)
			}
		})
	}
}

func TestMissingSubFieldIsZeroValue(t *testing.T) {
	got, err := List[CastEntry]("cast", `[{"id": 30711, "name": "Jess Harnell"}]`)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d elements, want 1", len(got))
	}
	el := got[0]
	if el.ID != 30711 || el.Name != "Jess Harnell" {
		t.Fatalf("decoded element = %+v", el)
	}
	if el.Character != "" || el.Gender != 0 || el.Order != 0 {
		t.Fatalf("missing sub-fields should stay zero, got %+v", el)
	}
}

func TestCastEntryFields(t *testing.T) {
	payload := `[{"cast_id": 242, "character": "Jake Sully", "credit_id": "5602a8a7c3a3685532001c9a", "gender": 2, "id": 65731, "name": "Sam Worthington", "order": 0}]`
	got, err := List[CastEntry]("cast", payload)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := CastEntry{
		CastID:    242,
		Character: "Jake Sully",
		CreditID:  "5602a8a7c3a3685532001c9a",
		Gender:    2,
		ID:        65731,
		Name:      "Sam Worthington",
		Order:     0,
	}
	if got[0] != want {
		t.Fatalf("decoded %+v, want %+v", got[0], want)
	}
}

func TestElementsStopsOnCallbackError(t *testing.T) {
	sentinel := fmt.Errorf("stop here")
	n := 0
	err := Elements("crew", `[{"id": 1}, {"id": 2}, {"id": 3}]`, func(CrewEntry) error {
		n++
		if n == 2 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want callback sentinel", err)
	}
	if n != 2 {
		t.Fatalf("callback ran %d times, want 2", n)
	}
}

func TestMalformedErrorNamesColumnAndOffset(t *testing.T) {
	_, err := List[IDName]("production_companies", `[{"id": 5, "name": ]`)
	if !errors.Is(err, ErrMalformedField) {
		t.Fatalf("err = %v, want ErrMalformedField", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "production_companies") {
		t.Fatalf("error %q does not name the column", msg)
	}
	if !strings.Contains(msg, "offset") {
		t.Fatalf("error %q does not carry an offset", msg)
	}
}
