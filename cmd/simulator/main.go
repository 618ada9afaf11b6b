package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dom/wedding-planner/internal/config"
	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/repository/postgres"
	"github.com/dom/wedding-planner/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "pair":
		pairCmd(apiURL, args)
	case "seed":
		seedCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Pairing Simulator - Development tool for exercising couple pairing

USAGE:
  simulator <command> [options]

COMMANDS:
  pair      Create a groom and a bride and run the full key handshake
  seed      Create one user with a key so you can pair with it from the app
  help      Show this help message

ENVIRONMENT:
  API_URL       Backend API URL (default: http://localhost:8080)
  DATABASE_URL  Used to create the simulated users
  JWT_SECRET    Must match the server so minted tokens are accepted

EXAMPLES:
  # Pair two fresh users end to end
  simulator pair

  # Create a bride and print her key and token
  simulator seed --gender=bride --name=Seo`)
}

type simUser struct {
	user  *domain.User
	token string
}

// newSimUser inserts a user directly and mints a token for it. Account
// creation is owned by another service, so there is no endpoint for it here.
func newSimUser(ctx context.Context, cfg *config.Config, name string) (*simUser, error) {
	db, caps, err := postgres.NewConnection(cfg.DatabaseURL, cfg.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	repos := postgres.NewRepositories(db, caps)
	user := &domain.User{DisplayName: name}
	if err := repos.User.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := service.NewAuthService(repos.User, cfg).IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &simUser{user: user, token: token}, nil
}

func mustConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func pairCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("pair", flag.ExitOnError)
	groomName := fs.String("groom", "Groom", "Display name for the groom")
	brideName := fs.String("bride", "Bride", "Display name for the bride")
	fs.Parse(args)

	cfg := mustConfig()
	ctx := context.Background()
	client := NewAPIClient(apiURL)

	fmt.Println("=== Pairing Simulator: Full Handshake ===")
	fmt.Println()

	fmt.Print("Creating users... ")
	groom, err := newSimUser(ctx, cfg, *groomName)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	bride, err := newSimUser(ctx, cfg, *brideName)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (ids: %d, %d)\n", groom.user.ID, bride.user.ID)

	fmt.Print("Selecting genders... ")
	groomKey, err := client.SelectGender(groom.token, "groom")
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	brideKey, err := client.SelectGender(bride.token, "bride")
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	if groomKey.CoupleKey == nil || brideKey.CoupleKey == nil {
		fmt.Println("FAILED\n  Error: no key issued")
		os.Exit(1)
	}
	fmt.Printf("OK (keys: %s, %s)\n", *groomKey.CoupleKey, *brideKey.CoupleKey)

	fmt.Print("Groom enters bride's key... ")
	first, err := client.Connect(groom.token, *brideKey.CoupleKey)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(first.Status)

	fmt.Print("Bride enters groom's key... ")
	second, err := client.Connect(bride.token, *groomKey.CoupleKey)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(second.Status)

	info, err := client.Info(groom.token)
	if err != nil {
		fmt.Printf("Failed to read couple info: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("=========================================")
	if info.IsConnected && info.CoupleID != nil {
		fmt.Println("  COUPLE CONNECTED")
		fmt.Println("=========================================")
		fmt.Println()
		fmt.Printf("  Couple ID:  %d\n", *info.CoupleID)
		fmt.Printf("  Connected:  %s\n", second.ConnectedAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("  HANDSHAKE DID NOT COMPLETE")
		fmt.Println("=========================================")
	}
	fmt.Println()
	fmt.Printf("  Groom token: %s\n", groom.token)
	fmt.Printf("  Bride token: %s\n", bride.token)
	fmt.Println()
}

func seedCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	gender := fs.String("gender", "bride", "groom or bride")
	name := fs.String("name", "", "Display name (defaults to the gender)")
	fs.Parse(args)

	if _, ok := domain.ParseGender(*gender); !ok {
		fmt.Println("Error: --gender must be groom or bride")
		os.Exit(1)
	}
	if *name == "" {
		*name = *gender
	}

	cfg := mustConfig()
	client := NewAPIClient(apiURL)

	sim, err := newSimUser(context.Background(), cfg, *name)
	if err != nil {
		fmt.Printf("Failed to create user: %v\n", err)
		os.Exit(1)
	}

	if _, err := client.SelectGender(sim.token, *gender); err != nil {
		fmt.Printf("Failed to select gender: %v\n", err)
		os.Exit(1)
	}
	status, err := client.MyKey(sim.token)
	if err != nil || status.CoupleKey == nil {
		fmt.Printf("Failed to read key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("  User:  %s (id %d)\n", sim.user.DisplayName, sim.user.ID)
	fmt.Printf("  Key:   %s\n", *status.CoupleKey)
	fmt.Printf("  Token: %s\n", sim.token)
	fmt.Println()
	fmt.Println("  Enter the key from a user of the other gender, then run")
	fmt.Println("  the connect call with this token to finish the handshake.")
	fmt.Println()
}
