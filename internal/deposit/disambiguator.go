package deposit

import (
	"errors"
	"math/rand"
)

// ErrAmbiguityExhausted means no unique settlement amount could be found
// inside the offset window. The caller should ask the user to retry; it
// usually clears as soon as an outstanding intent completes or expires.
var ErrAmbiguityExhausted = errors.New("no unambiguous settlement amount available")

// AmountTakenFunc reports whether a settlement amount is already held by a
// currently-pending intent.
type AmountTakenFunc func(amount int64) (bool, error)

// Disambiguator perturbs a requested nominal amount into a settlement
// amount no other pending intent holds, so the feed's amount-only
// correlation can tell concurrent same-value deposits apart. The offset
// window bounds how many same-nominal deposits can be outstanding at once.
type Disambiguator struct {
	offsetMin int64
	offsetMax int64
	attempts  int
	taken     AmountTakenFunc
}

func NewDisambiguator(offsetMin, offsetMax int64, attempts int, taken AmountTakenFunc) *Disambiguator {
	if offsetMin < 1 {
		offsetMin = 1
	}
	if offsetMax < offsetMin {
		offsetMax = offsetMin
	}
	if attempts < 1 {
		attempts = 1
	}
	return &Disambiguator{
		offsetMin: offsetMin,
		offsetMax: offsetMax,
		attempts:  attempts,
		taken:     taken,
	}
}

// Disambiguate returns requested plus a random offset that collides with no
// pending intent, retrying with fresh offsets up to the attempt bound.
func (d *Disambiguator) Disambiguate(requested int64) (int64, error) {
	for i := 0; i < d.attempts; i++ {
		offset := d.offsetMin + rand.Int63n(d.offsetMax-d.offsetMin+1)
		amount := requested + offset
		exists, err := d.taken(amount)
		if err != nil {
			return 0, err
		}
		if !exists {
			return amount, nil
		}
	}
	return 0, ErrAmbiguityExhausted
}
