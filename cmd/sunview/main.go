// Command sunview runs sunlight-duration and field-of-view analyses over
// residential building models.
package main

import (
	"fmt"
	"os"

	"github.com/yejunweb/3d-solar-threejs/internal/logger"
)

func main() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
