package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var diagramOut string

const workflowDiagram = `stateDiagram-v2
    [*] --> research
    research --> math: reply contains NEED_MATH_CALCULATION
    research --> [*]: plain answer
    research --> [*]: stage error
    math --> [*]
`

var diagramCmd = &cobra.Command{
	Use:   "diagram",
	Short: "Print the routing workflow as a Mermaid state diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		if diagramOut == "" {
			fmt.Print(workflowDiagram)
			return nil
		}
		if err := os.WriteFile(diagramOut, []byte(workflowDiagram), 0o644); err != nil {
			return eris.Wrap(err, "write diagram")
		}
		fmt.Printf("diagram written to %s\n", diagramOut)
		return nil
	},
}

func init() {
	diagramCmd.Flags().StringVar(&diagramOut, "out", "", "write the diagram to this path")
	rootCmd.AddCommand(diagramCmd)
}
