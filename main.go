package main

import "alternanceetmoi.fr/reports/cmd"

func main() {
	cmd.Execute()
}
