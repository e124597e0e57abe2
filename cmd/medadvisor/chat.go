package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphrx/medadvisor"
	"github.com/graphrx/medadvisor/pkg/config"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive advisor session",
	RunE:  runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the advisor a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
}

func newAgentClient() (*medadvisor.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}
	return medadvisor.New(cfg)
}

func runAsk(cmd *cobra.Command, args []string) error {
	client, err := newAgentClient()
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer client.Close(ctx)

	question := strings.Join(args, " ")
	answer, err := client.Agent.Ask(ctx, question, nil)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	client, err := newAgentClient()
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer client.Close(ctx)

	session := client.NewSession()

	fmt.Println("Medication Advisor - Interactive Chat")
	fmt.Println()
	fmt.Println("I can help you with:")
	fmt.Println("  - Medication dosages and schedules")
	fmt.Println("  - Drug interactions")
	fmt.Println("  - Medication information")
	fmt.Println("  - Discharge instructions")
	fmt.Println()
	fmt.Println("Type 'quit' or 'exit' to end the conversation.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			fmt.Println("\nThank you for using Medication Advisor. Take care!")
			return nil
		}

		answer, err := session.Ask(ctx, input)
		if err != nil {
			fmt.Printf("\nError: %v\n", err)
			continue
		}
		fmt.Printf("\nAgent: %s\n", answer)
	}
	return scanner.Err()
}
