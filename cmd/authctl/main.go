// Command authctl is an operator console for the auth service. It drives
// the client-side session core (session store + auth orchestrator) against
// the configured database, or an in-memory store when none is set.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"tidyhome/auth-service/internal/analytics"
	"tidyhome/auth-service/internal/auth"
	"tidyhome/auth-service/internal/config"
	"tidyhome/auth-service/internal/hub"
	"tidyhome/auth-service/internal/identity"
	"tidyhome/auth-service/internal/mailer"
	"tidyhome/auth-service/internal/recovery"
	"tidyhome/auth-service/internal/session"
	"tidyhome/auth-service/internal/store"
	"tidyhome/auth-service/internal/store/memory"
	"tidyhome/auth-service/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/term"
)

type consoleNavigator struct{}

func (consoleNavigator) GoTo(route string) {
	fmt.Printf("-> %s\n", route)
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var st store.Store
	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer pool.Close()
		st = postgres.NewStore(pool)
	} else {
		fmt.Println("no DB_DSN set, using in-memory store")
		st = memory.NewStore()
	}

	sessionHub := hub.New()
	svc := identity.NewDirect(st, sessionHub)
	sessions := session.New(svc, st)
	sender := mailer.New("log", "", "")
	orch := auth.NewOrchestrator(
		svc,
		sessions,
		analytics.New("noop", "", ""),
		sender,
		recovery.NewInitiator(st, sender, cfg.PublicBaseURL),
		consoleNavigator{},
		cfg.PublicBaseURL,
	)

	if err := sessions.Init(ctx); err != nil {
		log.Printf("session init: %v", err)
	}
	defer sessions.Close()

	fmt.Println("commands: register login whoami passwd reset logout quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("authctl> ")
		if !scanner.Scan() {
			return
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "register":
			email := prompt(scanner, "email: ")
			role := prompt(scanner, "role (admin/provider/customer): ")
			name := prompt(scanner, "full name: ")
			pass, err := readPassword("password: ")
			if err != nil {
				fmt.Println(err)
				continue
			}
			report(orch.SignUp(ctx, email, pass, role, name))
		case "login":
			email := prompt(scanner, "email: ")
			pass, err := readPassword("password: ")
			if err != nil {
				fmt.Println(err)
				continue
			}
			remember := prompt(scanner, "remember me (y/n): ") == "y"
			report(orch.SignIn(ctx, email, pass, remember))
		case "whoami":
			state := sessions.State()
			switch {
			case state.User != nil:
				fmt.Printf("%s <%s> role=%s\n", state.User.FullName, state.User.Email, state.User.Role)
			case state.Err != "":
				fmt.Printf("error: %s\n", state.Err)
			default:
				fmt.Println("not signed in")
			}
		case "passwd":
			pass, err := readPassword("new password: ")
			if err != nil {
				fmt.Println(err)
				continue
			}
			report(orch.UpdatePassword(ctx, pass))
		case "reset":
			email := prompt(scanner, "email: ")
			report(orch.ResetPassword(ctx, email))
		case "logout":
			report(orch.SignOut(ctx))
		case "quit", "exit":
			return
		case "":
		default:
			fmt.Println("unknown command")
		}
	}
}

func prompt(scanner *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func readPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func report(err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("ok")
}
