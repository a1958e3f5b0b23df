package main

import (
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/cli"
)

func main() {
	cli.Execute()
}
