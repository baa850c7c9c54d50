package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sparedge/sparedge/internal/scheduling"
	"github.com/sparedge/sparedge/utils"
)

func invoke(cmd *cobra.Command, args []string) {
	if len(funcName) < 1 || len(image) < 1 {
		fmt.Printf("Invalid function name or image.\n")
		cmd.Help()
		return
	}

	// Prepare request
	request := scheduling.Request{
		Function:  funcName,
		Image:     image,
		Vcpus:     vcpus,
		Memory:    memoryMB,
		Payload:   payload,
		Emergency: emergency,
	}
	invocationBody, err := json.Marshal(request)
	if err != nil {
		cmd.Help()
		return
	}

	// Send invocation request
	url := fmt.Sprintf("http://%s:%d/invoke", ServerConfig.Host, ServerConfig.Port)
	resp, err := utils.PostJson(url, invocationBody)
	if err != nil {
		fmt.Printf("Invocation failed: %v", err)
		os.Exit(2)
	}
	utils.PrintJsonResponse(resp.Body)
}
