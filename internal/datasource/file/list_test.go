package file

import (
	"reflect"
	"strings"
	"testing"
)

func TestReadIDs_Basic(t *testing.T) {
	t.Parallel()

	content := `
# exported from withdrawal list
1000010
   1000020

1000010
`
	got, err := ReadIDs(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ReadIDs: %v", err)
	}
	want := []int64{1000010, 1000020, 1000010}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadIDs = %v, want %v", got, want)
	}
}

func TestReadIDs_InvalidLine(t *testing.T) {
	t.Parallel()

	_, err := ReadIDs(strings.NewReader("1\nabc\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}

func TestReadIDs_Empty(t *testing.T) {
	t.Parallel()

	got, err := ReadIDs(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadIDs: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no ids, got %v", got)
	}
}
