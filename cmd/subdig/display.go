// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/siemens/subdig/sweep"
	"github.com/siemens/subdig/types"
)

// renderer renders the terminal progress display, based on the candidate
// information passed to its Render method.
type renderer struct {
	Indentation int
	subnet      string
	w           io.Writer
	spinner     *spinner
}

// newRenderer returns a renderer rendering to the specified io.Writer. subnet
// is the prefix of the subnet being swept.
func newRenderer(w io.Writer, subnet string) *renderer {
	sp := newSpinner()
	sp.Start(*spinnerInterval)
	return &renderer{
		Indentation: 3,
		subnet:      subnet,
		w:           w,
		spinner:     sp,
	}
}

// Stop the renderer's background ticker.
func (r *renderer) Stop() {
	r.spinner.Stop()
}

// Render the progress of the sweep, given the candidates in address order and
// the number of candidates per outcome.
func (r *renderer) Render(cs []types.Candidate, counts map[types.Outcome]int) {
	if len(cs) == 0 {
		fmt.Fprintf(r.w, "sweeping subnet %s.0/24...\n", r.subnet)
		return
	}
	decided := len(cs) - counts[types.Undecided]
	found := counts[types.Found]
	resolved := []types.Candidate{}
	maxlen := 0
	for _, c := range cs {
		if c.FQDN == "" {
			continue
		}
		resolved = append(resolved, c)
		if l := len(c.Addr); l > maxlen {
			maxlen = l
		}
	}
	fmt.Fprintf(r.w, "sweeping subnet %s.0/24: %d/%d addresses decided, %s\n",
		subnetStyle.Styled(r.subnet), decided, sweep.LastHost-sweep.FirstHost+1,
		foundStyle.Styled(fmt.Sprintf("%d found", found)))
	for _, c := range resolved {
		r.renderCandidate(maxlen, c)
	}
}

// renderCandidate renders a resolved candidate's address, name, and
// verification state.
func (r *renderer) renderCandidate(addrwidth int, c types.Candidate) {
	fmt.Fprintf(r.w, "%-*s%-*s ", r.Indentation, "", addrwidth, c.Addr)
	name := strings.TrimSuffix(c.FQDN, ".")
	switch c.Quality {
	case types.Unverified:
		fmt.Fprintf(r.w, " ? %s", name)
	case types.Verifying:
		fmt.Fprint(r.w, verifyingHostStyle.Styled(" "+r.spinner.Spinner()+name+" "))
	case types.Verified:
		fmt.Fprint(r.w, validHostStyle.Styled(" ✔ "+name+" "))
	case types.Invalid:
		fmt.Fprint(r.w, invalidHostStyle.Styled(" × "+name+" "))
	}
	fmt.Fprintln(r.w)
}
