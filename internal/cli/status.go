package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/sparedge/sparedge/utils"
)

func getAndPrint(path string) {
	url := fmt.Sprintf("http://%s:%d/%s", ServerConfig.Host, ServerConfig.Port, path)
	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("Request failed: %v", err)
		os.Exit(2)
	}
	utils.PrintJsonResponse(resp.Body)
}

func instances(cmd *cobra.Command, args []string) {
	getAndPrint("instances")
}

func resources(cmd *cobra.Command, args []string) {
	getAndPrint("resources")
}

func status(cmd *cobra.Command, args []string) {
	getAndPrint("status")
}
