package protocol

import (
	"errors"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// DkgStatus is the outcome a signer reports for a completed DKG round:
// either Success, or Failure carrying every reason gathered during the
// round (one per bad source key id, typically). Fields are exported, and
// Reasons is a []string rather than []error, so gob can carry this type
// over the wire without a custom codec — encoding/gob refuses structs
// with no exported fields and cannot encode the bare error interface.
type DkgStatus struct {
	Success bool
	Reasons []string
}

// DkgSuccess reports a round that completed cleanly.
func DkgSuccess() DkgStatus {
	return DkgStatus{Success: true}
}

// DkgFailure reports a round that completed with one or more problems.
// An empty reasons slice is still a Failure, carrying no detail.
func DkgFailure(reasons ...error) DkgStatus {
	msgs := make([]string, len(reasons))
	for i, r := range reasons {
		msgs[i] = r.Error()
	}
	return DkgStatus{Success: false, Reasons: msgs}
}

// IsSuccess reports whether the round succeeded.
func (s DkgStatus) IsSuccess() bool {
	return s.Success
}

// Errors returns the individual failure reasons as a single combined
// error, nil for a success, using *multierror.Error so a caller can still
// inspect or format the reasons individually.
func (s DkgStatus) Errors() error {
	if s.Success || len(s.Reasons) == 0 {
		return nil
	}
	var merr *multierror.Error
	for _, r := range s.Reasons {
		merr = multierror.Append(merr, errors.New(r))
	}
	return merr
}

func (s DkgStatus) String() string {
	if s.Success {
		return "Success"
	}
	if len(s.Reasons) == 0 {
		return "Failure"
	}
	if err := s.Errors(); err != nil {
		return "Failure(" + err.Error() + ")"
	}
	return "Failure"
}

// canonicalBytes serializes the status the way CanonicalHash expects: a
// single ok/fail byte followed by every reason string, each terminated by
// a zero byte. Reasons are sorted first, so the digest does not depend on
// the order in which they were recorded.
func (s DkgStatus) canonicalBytes() []byte {
	if s.Success {
		return []byte{1}
	}
	out := []byte{0}
	msgs := make([]string, len(s.Reasons))
	copy(msgs, s.Reasons)
	sort.Strings(msgs)
	for _, m := range msgs {
		out = append(out, []byte(m)...)
		out = append(out, 0)
	}
	return out
}
