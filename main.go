// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
)

func main() {
	fmt.Println("Dexaz Employee Management Client")
	fmt.Println("================================")
	fmt.Println()
	fmt.Println("A client-side data layer for the Dexaz HR backend: cached record")
	fmt.Println("windows, optimistic mutations with exact rollback, and live change")
	fmt.Println("feeds over websockets or Postgres LISTEN/NOTIFY.")
	fmt.Println()

	fmt.Println("Available examples:")
	fmt.Println()
	fmt.Println("1. Employee client (examples/employee_client/)")
	fmt.Println("   Signs in, hydrates the attendance month grid and task board,")
	fmt.Println("   prints dashboard aggregates and tails the notice feed.")
	fmt.Println("   Run: cd examples/employee_client && go run .")
	fmt.Println()
	fmt.Println("2. Import tool (examples/import_tool/)")
	fmt.Println("   Bulk-imports employees and leave requests from xlsx workbooks")
	fmt.Println("   and exports the month's attendance grid.")
	fmt.Println("   Run: cd examples/import_tool && go run . -help")
	fmt.Println()
}
