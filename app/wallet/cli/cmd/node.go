package cmd

import (
	"fmt"
	"log"
	"net/http"
	neturl "net/url"

	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine the pending records",
	Run:   getRun("/v1/mine"),
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain held by the node",
	Run:   getRun("/v1/blockchain"),
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Print the records waiting to be mined",
	Run:   getRun("/v1/records/pending"),
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ask the node to reconcile its chain with its peers",
	Run:   getRun("/v1/sync"),
}

var keyCmd = &cobra.Command{
	Use:   "key <value>",
	Short: "Report whether a uniqueness key is already used",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		getRun(fmt.Sprintf("/v1/keys/used/%s", neturl.PathEscape(args[0])))(cmd, args)
	},
}

var peersCmd = &cobra.Command{
	Use:   "peers [address ...]",
	Short: "List the known peers or register new ones",
	Run:   peersRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(peersCmd)
}

func getRun(path string) func(cmd *cobra.Command, args []string) {
	f := func(cmd *cobra.Command, args []string) {
		data, err := send(http.MethodGet, path, nil)
		if err != nil {
			log.Fatal(err)
		}

		if err := printJSON(data); err != nil {
			log.Fatal(err)
		}
	}

	return f
}

func peersRun(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		getRun("/v1/peers")(cmd, args)
		return
	}

	nodes := struct {
		Nodes []string `json:"nodes"`
	}{
		Nodes: args,
	}

	data, err := send(http.MethodPost, "/v1/peers", nodes)
	if err != nil {
		log.Fatal(err)
	}

	if err := printJSON(data); err != nil {
		log.Fatal(err)
	}
}
