package main

import "github.com/translationfiesta/backtranslate/internal/cli"

func main() {
	cli.Execute()
}
