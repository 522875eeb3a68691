package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.authService.Username() != "" {
		s = a.authService.Username() + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to CPD Vault (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	if ok, err := a.authService.RestoreSession(ctx); err != nil {
		log.Printf("could not restore session: %v", err)
	} else if ok {
		log.Printf("Welcome back, %s", a.authService.Username())
	}

	for {
		fmt.Printf("cpd %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: add, (l)ist, show, star, unstar, delete, attach, fetch, transcribe, sync, stats, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, add, (l)ist, show, star, unstar, delete, transcribe, stats, exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "add":
			a.add(ctx)
		case "list", "l":
			a.list(ctx)
		case "show":
			a.show(ctx)
		case "star":
			a.star(ctx, true)
		case "unstar":
			a.star(ctx, false)
		case "delete":
			a.delete(ctx)
		case "attach":
			a.attach(ctx)
		case "fetch":
			a.fetch(ctx)
		case "transcribe":
			a.transcribeNote(ctx)
		case "sync":
			a.syncNow(ctx)
		case "stats":
			a.showStats(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}
