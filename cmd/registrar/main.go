package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/synapsekit/registrar/internal/registrar/app"
	"github.com/synapsekit/registrar/internal/registrar/service"
	"github.com/synapsekit/registrar/internal/registrar/store"
)

const usage = `Usage: registrar [command]

Commands:
  serve           Run the HTTP server (default)
  add-admin       Create an admin user: add-admin <username>
  list-admins     List admin users
  remove-admin    Delete an admin user: remove-admin <username>
  generate-token  Mint an invitation token and print the invite link

Configuration is read from REGISTRAR_* environment variables.`

func main() {
	cfg := app.LoadConfig()

	verb := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		verb = args[0]
		args = args[1:]
	}

	var err error
	switch verb {
	case "serve":
		err = runServe(cfg)
	case "add-admin":
		err = runAddAdmin(cfg, args)
	case "list-admins":
		err = runListAdmins(cfg)
	case "remove-admin":
		err = runRemoveAdmin(cfg, args)
	case "generate-token":
		err = runGenerateToken(cfg)
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("registrar %s: %v", verb, err)
	}
}

func runServe(cfg app.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	return application.Run()
}

func runAddAdmin(cfg app.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: add-admin <username>")
	}
	username := args[0]

	password, err := promptPassword()
	if err != nil {
		return err
	}

	application, err := app.NewCLI(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	if _, err := application.AdminService().Create(context.Background(), username, password); err != nil {
		if errors.Is(err, service.ErrDuplicateAdmin) {
			return fmt.Errorf("admin %q already exists", username)
		}
		return err
	}

	fmt.Printf("Admin %q created.\n", username)
	return nil
}

func runListAdmins(cfg app.Config) error {
	application, err := app.NewCLI(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	admins, err := application.AdminService().ListAdmins(context.Background())
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		fmt.Println("No admin users.")
		return nil
	}

	for _, admin := range admins {
		lastLogin := "never"
		if admin.LastLoginAt != nil {
			lastLogin = admin.LastLoginAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-30s created %s  last login %s\n",
			admin.Username,
			admin.CreatedAt.Format("2006-01-02"),
			lastLogin,
		)
	}
	return nil
}

func runRemoveAdmin(cfg app.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove-admin <username>")
	}
	username := args[0]

	application, err := app.NewCLI(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.AdminService().Remove(context.Background(), username); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("admin %q does not exist", username)
		}
		return err
	}

	fmt.Printf("Admin %q removed.\n", username)
	return nil
}

func runGenerateToken(cfg app.Config) error {
	application, err := app.NewCLI(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	token, err := application.TokenService().Generate(context.Background())
	if err != nil {
		return err
	}

	fmt.Println(application.TokenService().InviteLink(token.Value))
	return nil
}

// promptPassword reads the password twice without echo, falling back to a
// plain line read when stdin is not a terminal (piped input).
func promptPassword() (string, error) {
	read := func(prompt string) (string, error) {
		fmt.Fprint(os.Stderr, prompt)

		if term.IsTerminal(int(syscall.Stdin)) {
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			return string(raw), err
		}

		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	password, err := read("Password: ")
	if err != nil {
		return "", err
	}

	if term.IsTerminal(int(syscall.Stdin)) {
		confirm, err := read("Confirm password: ")
		if err != nil {
			return "", err
		}
		if password != confirm {
			return "", errors.New("passwords do not match")
		}
	}

	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
