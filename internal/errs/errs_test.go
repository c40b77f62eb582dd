package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	base := New(NotFound, "order %s missing", "abc")
	wrapped := fmt.Errorf("context: %w", base)

	if CategoryOf(base) != NotFound {
		t.Errorf("category = %v, want %v", CategoryOf(base), NotFound)
	}
	if CategoryOf(wrapped) != NotFound {
		t.Errorf("category of wrapped = %v, want %v", CategoryOf(wrapped), NotFound)
	}
	if CategoryOf(errors.New("plain")) != Fault {
		t.Errorf("category of plain error should default to Fault")
	}
}

func TestAliases(t *testing.T) {
	t.Parallel()
	if Forbidden != Unauthorized {
		t.Error("Forbidden must alias Unauthorized")
	}
	if Interrupted != Fault {
		t.Error("Interrupted must alias Fault")
	}
}
