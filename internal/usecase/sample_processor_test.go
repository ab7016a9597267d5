package usecase

import (
	"errors"
	"testing"

	"AquaWatch/internal/domain/models"
	"AquaWatch/internal/services/inference"
)

func TestParseSampleAcceptsNumericStrings(t *testing.T) {
	s, err := ParseSample("POND_01", 100, map[string]interface{}{
		models.FieldDO:      "5.5",
		models.FieldTemp:    28,
		models.FieldAmmonia: 0.1,
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := s.GetOr(models.FieldDO, -1); got != 5.5 {
		t.Fatalf("DO = %v, want 5.5", got)
	}
	if s.PondID != "POND_01" || s.Timestamp != 100 {
		t.Fatalf("unexpected sample meta: %+v", s)
	}
}

func TestParseSampleNonNumericDODropped(t *testing.T) {
	s, err := ParseSample("POND_01", 100, map[string]interface{}{
		models.FieldDO:   "sensor error",
		models.FieldTemp: 28,
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := s.Get(models.FieldDO); ok {
		t.Fatalf("non-numeric DO must be treated as absent")
	}
	if _, ok := s.Get(models.FieldTemp); !ok {
		t.Fatalf("temp must survive")
	}
}

func TestParseSampleNonNumericFieldRejected(t *testing.T) {
	_, err := ParseSample("POND_01", 100, map[string]interface{}{
		models.FieldTemp: "hot",
	})
	if !errors.Is(err, inference.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseSampleEmptyInputRejected(t *testing.T) {
	if _, err := ParseSample("POND_01", 100, nil); !errors.Is(err, inference.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty input, got %v", err)
	}
}

func TestParseSampleMissingTimestampFilled(t *testing.T) {
	s, err := ParseSample("POND_01", 0, map[string]interface{}{models.FieldTemp: 28})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Timestamp <= 0 {
		t.Fatalf("timestamp not filled: %d", s.Timestamp)
	}
}

func TestSimulatorStateStaysInRange(t *testing.T) {
	st := newPondState(1, "normal")
	for i := 0; i < 500; i++ {
		sample := st.next("POND_01", "normal")
		if v, ok := sample.Get(models.FieldDO); ok && (v < 0 || v > 12) {
			t.Fatalf("DO out of range: %v", v)
		}
		if v := sample.GetOr(models.FieldPH, 7); v < 6.0 || v > 9.5 {
			t.Fatalf("pH out of range: %v", v)
		}
		if v := sample.GetOr(models.FieldAmmonia, 0); v < 0 || v > 1.51 {
			t.Fatalf("ammonia out of range: %v", v)
		}
	}
}

func TestSimulatorDangerModeStartsLow(t *testing.T) {
	st := newPondState(1, "danger")
	if st.do > 3.5 {
		t.Fatalf("danger mode DO should start depressed, got %v", st.do)
	}
	if st.ammonia < 0.4 {
		t.Fatalf("danger mode ammonia should start elevated, got %v", st.ammonia)
	}
}
