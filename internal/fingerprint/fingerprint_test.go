package fingerprint

import (
	"testing"

	"github.com/conorfennell/murajaah/internal/domain"
)

func TestNormalize(t *testing.T) {
	s := domain.Subject{
		Arabic:      "  بِسْمِ \r\n",
		Translation: "In The  Name of",
		Example:     "ignored",
	}
	expected := "بسم\nin the name of"
	if got := Normalize(s); got != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, got)
	}
}

func TestSubjectID(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		s := domain.Subject{Arabic: "A", Translation: "B"}
		// sha256 of "a\nb"
		expected := "7e18f737311b2dc3b2f269dd78396b0351f14fb66efa879f768cb23181883c78"
		if got := SubjectID(s); got != expected {
			t.Errorf("Expected hash '%s', but got '%s'", expected, got)
		}
	})

	t.Run("hash is deterministic", func(t *testing.T) {
		a := domain.Subject{Arabic: "نور"}
		b := domain.Subject{Arabic: "نور"}
		if SubjectID(a) != SubjectID(b) {
			t.Error("Expected identical subjects to share an ID")
		}
	})

	t.Run("diacritics do not change the ID", func(t *testing.T) {
		vocalized := domain.Subject{Arabic: "الرَّحْمَٰنُ", Translation: "The Most Gracious"}
		bare := domain.Subject{Arabic: "الرحمن", Translation: "the most gracious"}
		if SubjectID(vocalized) != SubjectID(bare) {
			t.Errorf("Expected the same ID, got %q and %q", Normalize(vocalized), Normalize(bare))
		}
	})

	t.Run("transliteration and example are not identifying", func(t *testing.T) {
		a := domain.Subject{Arabic: "قلب", Translation: "heart", Transliteration: "qalb"}
		b := domain.Subject{Arabic: "قلب", Translation: "heart", Example: "fi qulubihim"}
		if SubjectID(a) != SubjectID(b) {
			t.Error("Expected the same ID")
		}
	})

	t.Run("different subjects have different IDs", func(t *testing.T) {
		a := domain.Subject{Arabic: "رحمن"}
		b := domain.Subject{Arabic: "رحيم"}
		if SubjectID(a) == SubjectID(b) {
			t.Error("Expected different IDs")
		}
	})
}
