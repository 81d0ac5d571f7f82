package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
)

// runChat drives the interactive terminal session.
func runChat(a *app) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nGoodbye!")
		cancel()
		os.Exit(0)
	}()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	boldRed := color.New(color.FgRed, color.Bold).SprintFunc()

	fmt.Println(boldGreen("Knowledge Bot for Internal Docs"))
	fmt.Println(strings.Repeat("=", 50))

	fmt.Println("\nTesting content store connection...")
	if a.content.TestConnection(ctx) {
		fmt.Println(boldGreen("Connected to the content store."))
	} else {
		fmt.Println(boldRed("Failed to connect to the content store."))
		fmt.Println("Check the configured base URL, username and API token.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("Bot is ready! I can help you:")
	fmt.Println("  - Search documents")
	fmt.Println("  - Answer questions with citations")
	fmt.Println("  - Summarize long documents")
	fmt.Println("  - Suggest actionable next steps")
	fmt.Println("\nType 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(question) {
		case "exit", "quit", "q":
			fmt.Println("\nGoodbye!")
			return
		case "":
			continue
		}

		spinner := newSpinner(boldCyan("Bot: "), "Thinking")
		spinner.start()

		answer, err := a.agent.Ask(ctx, question)
		spinner.stop()

		if err != nil {
			fmt.Printf("%s %v\n\n", boldRed("Error:"), err)
			continue
		}
		fmt.Printf("%s%s\n\n", boldCyan("Bot: "), answer)
	}
}
