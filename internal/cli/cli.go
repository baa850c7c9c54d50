package cli

import (
	"fmt"
	"os"

	"github.com/sparedge/sparedge/internal/config"
	"github.com/spf13/cobra"
)

var ServerConfig config.RemoteServerConf

var rootCmd = &cobra.Command{
	Use:   "sparedge-cli",
	Short: "CLI utility for Sparedge",
	Long:  `CLI utility to interact with a Sparedge edge node.`,
}

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Invokes a function",
	Run:   invoke,
}

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "Lists the instances recorded by the node",
	Run:   instances,
}

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Shows the node's free resources",
	Run:   resources,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the node status",
	Run:   status,
}

var funcName, image, payload string
var vcpus, memoryMB int
var emergency bool

func Init() {
	rootCmd.PersistentFlags().StringVarP(&ServerConfig.Host, "host", "H", ServerConfig.Host, "remote Sparedge host")
	rootCmd.PersistentFlags().IntVarP(&ServerConfig.Port, "port", "P", ServerConfig.Port, "remote Sparedge port")

	rootCmd.AddCommand(invokeCmd)
	invokeCmd.Flags().StringVarP(&funcName, "function", "f", "", "name of the function")
	invokeCmd.Flags().StringVarP(&image, "image", "i", "", "guest image for the function")
	invokeCmd.Flags().IntVarP(&vcpus, "vcpus", "c", 1, "vCPUs demanded by the function")
	invokeCmd.Flags().IntVarP(&memoryMB, "memory", "m", 128, "max memory in MB for the function")
	invokeCmd.Flags().StringVarP(&payload, "payload", "p", "", "payload passed to the guest (optional)")
	invokeCmd.Flags().BoolVarP(&emergency, "emergency", "e", false, "mark the request as emergency traffic")

	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
