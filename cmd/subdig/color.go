// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

var (
	verifyingHostStyle = termenv.Style{}.Foreground(termenv.ANSIYellow)
	validHostStyle     = termenv.Style{}.Foreground(termenv.ANSIGreen)
	invalidHostStyle   = termenv.Style{}.Foreground(termenv.ANSIRed)
)

var (
	subnetStyle = termenv.Style{}.Bold()
	foundStyle  = termenv.Style{}.Foreground(termenv.ANSIGreen).Bold()
)
