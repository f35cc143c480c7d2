// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Linkshell - Serial Command Bridge
//
// A CLI tool that interprets operator command lines and relays them over a
// secondary serial link, reporting what comes back.

package main

import (
	"os"

	"github.com/Thermoquad/linkshell/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
