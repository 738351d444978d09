package sanitization

import (
	"crypto/rand"
	"fmt"
)

// SeedSize is the length in bytes of a random fill seed.
const SeedSize = 32

// FillKind selects the content written by a stage.
type FillKind int

const (
	FillZero FillKind = iota
	FillOne
	FillPattern
	FillRandom
)

// Stage is a single fill pass within a scheme. Immutable once constructed.
type Stage struct {
	Kind    FillKind
	Pattern []byte         // FillPattern only
	Seed    [SeedSize]byte // FillRandom only
}

// Zero creates a stage filling every block with 0x00.
func Zero() Stage {
	return Stage{Kind: FillZero}
}

// One creates a stage filling every block with 0xff.
func One() Stage {
	return Stage{Kind: FillOne}
}

// Pattern creates a stage repeating the given byte sequence.
func Pattern(p []byte) Stage {
	return Stage{Kind: FillPattern, Pattern: p}
}

// Random creates a stage with a fresh cryptographically random seed.
func Random() Stage {
	var seed [SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("sanitization: unable to source random seed: %v", err))
	}
	return RandomWithSeed(seed)
}

// RandomWithSeed creates a random fill stage from an explicit seed.
// The same seed always produces the same fill content.
func RandomWithSeed(seed [SeedSize]byte) Stage {
	return Stage{Kind: FillRandom, Seed: seed}
}

func (s Stage) Description() string {
	switch s.Kind {
	case FillZero:
		return "Value Fill (00)"
	case FillOne:
		return "Value Fill (ff)"
	case FillPattern:
		return fmt.Sprintf("Pattern Fill (% 02x)", s.Pattern)
	case FillRandom:
		return "Random Fill"
	default:
		return "Unknown"
	}
}

// Verify selects which stages require read-back confirmation.
type Verify int

const (
	VerifyNone Verify = iota
	VerifyLast
	VerifyAll
)

func ParseVerify(s string) (Verify, error) {
	switch s {
	case "no", "none":
		return VerifyNone, nil
	case "last":
		return VerifyLast, nil
	case "all":
		return VerifyAll, nil
	default:
		return VerifyNone, fmt.Errorf("unknown verification mode %q (expected no, last or all)", s)
	}
}

func (v Verify) String() string {
	switch v {
	case VerifyNone:
		return "no"
	case VerifyLast:
		return "last"
	case VerifyAll:
		return "all"
	default:
		return "unknown"
	}
}

// Scheme is an ordered, validated sequence of fill stages.
type Scheme struct {
	Name        string
	Description string
	Stages      []Stage
}

// Validate checks the scheme invariants: at least one stage and
// non-empty byte sequences for pattern fills.
func (s Scheme) Validate() error {
	if len(s.Stages) == 0 {
		return fmt.Errorf("scheme %q has no stages", s.Name)
	}
	for i, st := range s.Stages {
		if st.Kind == FillPattern && len(st.Pattern) == 0 {
			return fmt.Errorf("scheme %q stage %d has an empty fill pattern", s.Name, i+1)
		}
	}
	return nil
}

// SchemeRepo holds the named sanitization schemes available to the CLI.
type SchemeRepo struct {
	order   []string
	schemes map[string]Scheme
}

// DefaultRepo builds the standard scheme set.
func DefaultRepo() *SchemeRepo {
	r := &SchemeRepo{schemes: make(map[string]Scheme)}

	r.add(Scheme{
		Name:        "zero",
		Description: "Single zeroes fill, fast",
		Stages:      []Stage{Zero()},
	})
	r.add(Scheme{
		Name:        "one",
		Description: "Single ones fill, fast",
		Stages:      []Stage{One()},
	})
	r.add(Scheme{
		Name:        "random",
		Description: "Single random fill",
		Stages:      []Stage{Random()},
	})
	r.add(Scheme{
		Name:        "random2",
		Description: "Double random fill",
		Stages:      []Stage{Random(), Random()},
	})
	r.add(Scheme{
		Name:        "badblocks",
		Description: "Alternating patterns as used by badblocks",
		Stages: []Stage{
			Pattern([]byte{0xaa}),
			Pattern([]byte{0x55}),
			One(),
			Zero(),
		},
	})
	r.add(Scheme{
		Name:        "gost",
		Description: "GOST R 50739-95, 2nd class",
		Stages:      []Stage{Zero(), Random()},
	})
	r.add(Scheme{
		Name:        "dod",
		Description: "DOD 5220.22-M",
		Stages:      []Stage{Zero(), One(), Random()},
	})

	return r
}

func (r *SchemeRepo) add(s Scheme) {
	r.order = append(r.order, s.Name)
	r.schemes[s.Name] = s
}

// Find returns a scheme by name.
func (r *SchemeRepo) Find(name string) (Scheme, bool) {
	s, ok := r.schemes[name]
	return s, ok
}

// All returns every scheme in registration order.
func (r *SchemeRepo) All() []Scheme {
	out := make([]Scheme, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.schemes[name])
	}
	return out
}

// Names returns the scheme names in registration order.
func (r *SchemeRepo) Names() []string {
	return append([]string(nil), r.order...)
}
