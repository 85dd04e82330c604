package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chriscow/cinema-kiosk-go/pkg/order"
	"github.com/chriscow/cinema-kiosk-go/pkg/panel"
	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
)

var confirmSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an order confirmation to the WhatsApp webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		phone, _ := cmd.Flags().GetString("phone")
		movie, _ := cmd.Flags().GetString("movie")
		showtime, _ := cmd.Flags().GetString("showtime")
		items, _ := cmd.Flags().GetStringArray("item")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		logger := setupLogger()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cart, err := parseCartItems(items)
		if err != nil {
			return err
		}
		view := panel.AggregateCart(cart)
		s := order.Summary{
			MovieName: movie,
			Showtime:  showtime,
			Lines:     view.Lines,
			Total:     view.Total,
			PlacedAt:  time.Now(),
		}
		c := order.NewConfirmation(phone, s)
		if err := c.Validate(); err != nil {
			return err
		}

		if dryRun {
			b, _ := json.MarshalIndent(c, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := order.NewWebhookSender(logger, cfg.WebhookOptions()...).Send(ctx, c); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.PickupMessage())
		return nil
	},
}

// parseCartItems reads name:quantity:price triples. Names may contain colons.
func parseCartItems(args []string) ([]tool.CartItem, error) {
	items := make([]tool.CartItem, 0, len(args))
	for _, raw := range args {
		i := strings.LastIndex(raw, ":")
		j := -1
		if i > 0 {
			j = strings.LastIndex(raw[:i], ":")
		}
		if j <= 0 {
			return nil, fmt.Errorf("invalid item %q: want name:quantity:price", raw)
		}

		qty, err := strconv.ParseFloat(raw[j+1:i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q: %w", raw, err)
		}
		price, err := strconv.ParseFloat(raw[i+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price in %q: %w", raw, err)
		}
		items = append(items, tool.CartItem{Name: raw[:j], Quantity: &qty, Price: &price})
	}
	return items, nil
}
