package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv" // reads .env so API_BASE_URL can live in a file

	"github.com/juliovp13-web/SafeZone/internal/app"
)

// bellSounder rings the terminal bell for each alarm tone.
type bellSounder struct{}

func (bellSounder) Tone(freqHz int, d time.Duration) { fmt.Print("\a") }
func (bellSounder) Silence()                         {}

func main() {
	_ = godotenv.Load()

	base := os.Getenv("API_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	logger := log.New(os.Stderr, "[safezone] ", log.LstdFlags)

	tokens, err := app.DefaultTokenStore()
	if err != nil {
		logger.Printf("token store unavailable, session will not persist: %v", err)
	}

	var store app.TokenStore
	if tokens != nil {
		store = tokens
	}
	a := app.New(app.NewAPIClient(base), store, bellSounder{}, logger)

	ctx := context.Background()
	if a.Restore(ctx) {
		fmt.Println("session restored")
	}

	fmt.Println("SafeZone terminal client. Commands: login, register, status, pay, alert <type>, stop, history, help-msg, logout, quit")

	sc := bufio.NewScanner(os.Stdin)
	for {
		printState(a)
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			a.Logout()
			return
		case "logout":
			a.Logout()
		case "login":
			email := prompt(sc, "email")
			pass := prompt(sc, "password")
			if err := a.Login(ctx, email, pass); err != nil {
				fmt.Println("login failed:", err)
			}
		case "register":
			req := app.RegisterRequest{
				Name:         prompt(sc, "name"),
				Email:        prompt(sc, "email"),
				Password:     prompt(sc, "password"),
				Street:       prompt(sc, "street"),
				Number:       prompt(sc, "number"),
				Neighborhood: prompt(sc, "neighborhood"),
			}
			req.ResidentNames = strings.Split(prompt(sc, "resident names (comma separated)"), ",")
			if err := a.Register(ctx, req); err != nil {
				fmt.Println("register failed:", err)
			}
		case "status":
			st, err := a.API.SubscriptionStatus(ctx)
			if err != nil {
				fmt.Println("status failed:", err)
				break
			}
			fmt.Printf("%s blocked=%v: %s\n", st.Status, st.IsBlocked, st.Message)
		case "pay":
			method := prompt(sc, "payment method (credit-card/pix/boleto)")
			if err := a.ConfirmPayment(ctx, method, prompt(sc, "transaction id")); err != nil {
				fmt.Println("payment failed:", err)
			}
		case "alert":
			if len(fields) < 2 {
				fmt.Println("usage: alert <invasão|roubo|emergência>")
				break
			}
			if err := a.SendAlert(ctx, fields[1]); err != nil {
				fmt.Println("alert failed:", err)
			}
		case "stop":
			a.StopAlert(ctx)
		case "history":
			a.RefreshHistory(ctx)
			for _, al := range a.Store.Snapshot().History {
				fmt.Printf("%s  %-10s %s - Rua %s, %s\n", al.Timestamp, al.Type, al.UserName, al.Street, al.Number)
			}
		case "help-msg":
			if err := a.API.SendHelp(ctx, prompt(sc, "message")); err != nil {
				fmt.Println("send failed:", err)
			}
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func printState(a *app.App) {
	snap := a.Store.Snapshot()
	if n := a.Store.LastNotice(); n.Text != "" {
		fmt.Println("!!", n.Text)
	}
	fmt.Printf("[screen: %s]\n", snap.Screen)
}

func prompt(sc *bufio.Scanner, label string) string {
	fmt.Printf("%s: ", label)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}
