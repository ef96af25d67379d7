package query

import (
	"math/bits"
	"net/url"
	"strconv"
	"time"

	"codeberg.org/mutker/atmena/internal/errors"
	"github.com/relvacode/iso8601"
)

// DefaultLimit is the number of rows returned when a request sets no limit.
const DefaultLimit = 3000

// Bound is one side of the created range.
type Bound struct {
	Time      time.Time
	Inclusive bool
	Set       bool
}

// Options are the paging and range parameters of a select.
type Options struct {
	// Limit of 0 means unlimited.
	Limit  uint64
	Page   uint64
	Offset uint64
	After  Bound
	Before Bound
}

// EffectiveOffset folds the page into the offset. An unlimited limit
// contributes nothing, so page has no effect without a limit.
func (o Options) EffectiveOffset() (uint64, error) {
	if o.Page == 0 {
		return o.Offset, nil
	}

	hi, skip := bits.Mul64(o.Page, o.Limit)
	if hi != 0 {
		return 0, errors.New().New(errors.ErrInvalidLimitOrOffset)
	}
	offset, carry := bits.Add64(skip, o.Offset, 0)
	if carry != 0 {
		return 0, errors.New().New(errors.ErrInvalidLimitOrOffset)
	}

	return offset, nil
}

// ParseOptions reads limit, page, offset and the created bounds from a
// request query. An empty or missing limit selects defaultLimit, "0" means
// unlimited. after_inc takes precedence over after, before_inc over before.
func ParseOptions(q url.Values, defaultLimit uint64) (Options, error) {
	opts := Options{Limit: defaultLimit}

	var err error
	if v := q.Get("limit"); v != "" {
		if opts.Limit, err = parseCount(v); err != nil {
			return Options{}, err
		}
	}
	if v := q.Get("page"); v != "" {
		if opts.Page, err = parseCount(v); err != nil {
			return Options{}, err
		}
	}
	if v := q.Get("offset"); v != "" {
		if opts.Offset, err = parseCount(v); err != nil {
			return Options{}, err
		}
	}

	if opts.After, err = parseBound(q, "after_inc", "after"); err != nil {
		return Options{}, err
	}
	if opts.Before, err = parseBound(q, "before_inc", "before"); err != nil {
		return Options{}, err
	}

	return opts, nil
}

func parseCount(v string) (uint64, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.New().Wrap(errors.ErrInvalidLimitOrOffset, err)
	}
	return n, nil
}

func parseBound(q url.Values, inclusiveKey, exclusiveKey string) (Bound, error) {
	key, inclusive := exclusiveKey, false
	if q.Get(inclusiveKey) != "" {
		key, inclusive = inclusiveKey, true
	}

	v := q.Get(key)
	if v == "" {
		return Bound{}, nil
	}

	t, err := ParseTime(v)
	if err != nil {
		return Bound{}, errors.New().WithMessage(errors.ErrInvalidTimestamp,
			"Invalid timestamp '"+v+"' for "+key)
	}

	return Bound{Time: t, Inclusive: inclusive, Set: true}, nil
}

// ParseTime parses an ISO-8601 timestamp or the stored DATETIME layout.
// Values without a zone are UTC.
func ParseTime(v string) (time.Time, error) {
	t, err := iso8601.ParseString(v)
	if err != nil {
		if st, serr := time.ParseInLocation(TimeFormat, v, time.UTC); serr == nil {
			return st, nil
		}
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseDeviceID parses the decimal device identifier from a URL path.
func ParseDeviceID(v string) (uint64, error) {
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.New().WithMessage(errors.ErrInvalidDeviceID, "Invalid device ID '"+v+"'")
	}
	return id, nil
}
