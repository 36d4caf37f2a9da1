package revshare

import (
	"sort"
	"strings"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

// Registry maps expert keys to weighted contributor pools. It holds pool
// ids only, never pool state. Not safe for concurrent use.
type Registry struct {
	experts map[string]*Expert
	nextID  uint64
	log     *zap.SugaredLogger
}

// NewRegistry returns an empty registry. A nil logger disables logging.
func NewRegistry(log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{experts: make(map[string]*Expert), nextID: 1, log: log}
}

// CheckContribute validates a contribution without recording it.
func (r *Registry) CheckContribute(key string, weight *uint256.Int) error {
	if key == "" || len(key) > MaxKeyLen || strings.TrimSpace(key) != key {
		return errors.Wrapf(errors.ErrInvalidName, "revshare: expert key must be 1-%d bytes without surrounding space", MaxKeyLen)
	}
	if fixedpoint.IsZero(weight) {
		return errors.Wrap(errors.ErrInvalidWeight, "revshare: weight must be positive")
	}
	if e, ok := r.experts[key]; ok {
		if _, err := fixedpoint.Add(&e.TotalWeight, weight); err != nil {
			return errors.Wrap(err, "revshare: total weight")
		}
	}
	return nil
}

// Contribute appends (poolID, weight) to the expert, creating it on first
// use. A pool contributing twice is counted twice. It returns a copy of the
// updated expert and whether it was created.
func (r *Registry) Contribute(key string, poolID uint64, weight *uint256.Int) (Expert, bool, error) {
	if err := r.CheckContribute(key, weight); err != nil {
		return Expert{}, false, err
	}

	e, ok := r.experts[key]
	created := !ok
	if created {
		e = &Expert{Key: key, ID: r.nextID}
	} else {
		e = e.clone()
	}
	total, _ := fixedpoint.Add(&e.TotalWeight, weight)
	e.TotalWeight = *total
	entry := Entry{PoolID: poolID}
	entry.Weight.Set(weight)
	e.Entries = append(e.Entries, entry)

	r.experts[key] = e
	if created {
		r.nextID++
	}

	r.log.Infow("expert knowledge contributed", "expert", key, "id", e.ID, "pool", poolID,
		"weight", fixedpoint.Format(weight), "total_weight", fixedpoint.Format(&e.TotalWeight))
	return *e.clone(), created, nil
}

// Plan computes how a payment to key would be split. Nothing changes.
func (r *Registry) Plan(key string, amount *uint256.Int) ([]Distribution, error) {
	e, ok := r.experts[key]
	if !ok || len(e.Entries) == 0 {
		return nil, errors.Wrapf(errors.ErrUnknownExpert, "revshare: expert %q", key)
	}
	if e.TotalWeight.IsZero() {
		return nil, errors.Wrapf(errors.ErrZeroWeight, "revshare: expert %q", key)
	}
	if _, err := fixedpoint.Add(&e.LifetimeEarnings, amount); err != nil {
		return nil, errors.Wrap(err, "revshare: lifetime earnings")
	}
	return Distribute(amount, e.Entries, &e.TotalWeight)
}

// RecordPayment adds a routed payment to the expert's lifetime earnings.
func (r *Registry) RecordPayment(key string, amount *uint256.Int) error {
	e, ok := r.experts[key]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownExpert, "revshare: expert %q", key)
	}
	earned, err := fixedpoint.Add(&e.LifetimeEarnings, amount)
	if err != nil {
		return err
	}
	e.LifetimeEarnings = *earned
	return nil
}

// Expert returns a copy of the expert registered under key.
func (r *Registry) Expert(key string) (Expert, bool) {
	e, ok := r.experts[key]
	if !ok {
		return Expert{}, false
	}
	return *e.clone(), true
}

// Experts lists every expert ordered by id.
func (r *Registry) Experts() []Expert {
	out := make([]Expert, 0, len(r.experts))
	for _, e := range r.experts {
		out = append(out, *e.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NextID returns the id the next new expert will get.
func (r *Registry) NextID() uint64 { return r.nextID }

// SetNextID restores the id sequence from storage.
func (r *Registry) SetNextID(id uint64) {
	if id == 0 {
		id = 1
	}
	r.nextID = id
}

// Restore installs an expert loaded from storage.
func (r *Registry) Restore(e Expert) {
	r.experts[e.Key] = e.clone()
	if e.ID >= r.nextID {
		r.nextID = e.ID + 1
	}
}
