package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/application"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/bootstrap"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the indexes the store relies on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.EnsureIndexes(cmd.Context()); err != nil {
				return err
			}
			a.logger.WithOperation("migrate").Info("Indexes ensured", "store", a.store.Name)
			_, err := fmt.Fprintf(a.out, "indexes ensured on %s\n", a.store.Name)
			return err
		},
	}
}

func newItemCommand(a *app) *cobra.Command {
	item := &cobra.Command{
		Use:   "item",
		Short: "Manage inventory items",
	}

	// save
	var (
		isNew                    bool
		name, details            string
		purchasePrice, salePrice string
		quantity, minStock       int
	)
	saveCmd := &cobra.Command{
		Use:   "save <id>",
		Short: "Create an item or merge fields into an existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			save := application.SaveItemCommand{ItemID: args[0], IsNew: isNew, Details: details}

			flags := cmd.Flags()
			if flags.Changed("name") {
				save.Name = &name
			}
			if flags.Changed("quantity") {
				save.Quantity = &quantity
			}
			if flags.Changed("min-stock") {
				save.MinStockAlert = &minStock
			}
			if flags.Changed("purchase-price") {
				m, err := domain.ParseMoney(purchasePrice, domain.DefaultCurrency)
				if err != nil {
					return fmt.Errorf("--purchase-price: %w", err)
				}
				save.PurchasePrice = &m
			}
			if flags.Changed("sale-price") {
				m, err := domain.ParseMoney(salePrice, domain.DefaultCurrency)
				if err != nil {
					return fmt.Errorf("--sale-price: %w", err)
				}
				save.SalePrice = &m
			}

			saved, err := a.services.Inventory.SaveItem(cmd.Context(), save)
			if err != nil {
				return err
			}
			return a.printJSON(saved)
		},
	}
	saveCmd.Flags().BoolVar(&isNew, "new", false, "the item is being created")
	saveCmd.Flags().StringVar(&name, "name", "", "display name")
	saveCmd.Flags().IntVar(&quantity, "quantity", 0, "absolute stock level")
	saveCmd.Flags().StringVar(&purchasePrice, "purchase-price", "", "unit cost, e.g. 1.50")
	saveCmd.Flags().StringVar(&salePrice, "sale-price", "", "unit price, e.g. 2.50")
	saveCmd.Flags().IntVar(&minStock, "min-stock", 0, "low-stock threshold (0 disables alerts)")
	saveCmd.Flags().StringVar(&details, "details", "", "history note")

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item and its whole history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.services.Inventory.DeleteItem(cmd.Context(), application.DeleteItemCommand{ItemID: args[0]})
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}

	// list
	var lowStock bool
	var output string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List items by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				items []application.InventoryItemDTO
				err   error
			)
			if lowStock {
				items, err = a.services.Inventory.GetLowStockItems(cmd.Context())
			} else {
				items, err = a.services.Inventory.GetAllItems(cmd.Context())
			}
			if err != nil {
				return err
			}

			if output == "json" {
				return a.printJSON(items)
			}
			for _, it := range items {
				flag := ""
				if it.LowStock {
					flag = " LOW"
				}
				fmt.Fprintf(a.out, "%s | %s | %d | %s%s\n", it.ID, it.Name, it.Quantity, it.SalePrice.Format(), flag)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&lowStock, "low-stock", false, "only items at or below their threshold")
	listCmd.Flags().StringVar(&output, "output", "", "output format (json)")

	item.AddCommand(saveCmd, deleteCmd, listCmd)
	return item
}

func newOrderCommand(a *app) *cobra.Command {
	order := &cobra.Command{
		Use:   "order",
		Short: "Work with orders",
	}

	completeCmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete an open order, decrementing stock for every line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.services.Ledger.CompleteOrder(cmd.Context(), application.CompleteOrderCommand{OrderID: args[0]})
			if result != nil {
				fmt.Fprintln(a.out, result.Message)
				for _, alert := range result.Alerts {
					fmt.Fprintln(a.out, "ALERT:", alert)
				}
			}
			return err
		},
	}

	order.AddCommand(completeCmd)
	return order
}

func newReportCommand(a *app) *cobra.Command {
	report := &cobra.Command{
		Use:   "report",
		Short: "Sales reports",
	}

	var date string
	dailyCmd := &cobra.Command{
		Use:   "daily",
		Short: "Summarise one day of completed sales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := a.services.Reports.ParseDate(date)
			if err != nil {
				return err
			}
			summary, err := a.services.Reports.DailySummary(cmd.Context(), day)
			if err != nil {
				return err
			}
			return a.printJSON(summary)
		},
	}
	dailyCmd.Flags().StringVar(&date, "date", "", "day to summarise, YYYY-MM-DD (defaults to today)")

	report.AddCommand(dailyCmd)
	return report
}

func newOutboxCommand(a *app) *cobra.Command {
	ob := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and relay the event outbox",
	}

	var follow bool
	relayCmd := &cobra.Command{
		Use:   "relay",
		Short: "Publish pending outbox events to Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			relay := bootstrap.NewRelay(a.cfg, a.store, a.metrics, a.logger.WithOperation("outbox-relay"))
			if relay == nil {
				return errors.New("kafka is disabled; set KAFKA_ENABLED=true")
			}
			defer relay.Close()

			if !follow {
				n := relay.Publisher.ProcessOnce(cmd.Context())
				_, err := fmt.Fprintf(a.out, "published %d events\n", n)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := relay.Publisher.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			stats := relay.Publisher.Stats()
			_, err := fmt.Fprintf(a.out, "published %d events, %d failed\n", stats["published"], stats["failed"])
			return err
		},
	}
	relayCmd.Flags().BoolVar(&follow, "follow", false, "keep relaying until interrupted")

	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "List events not yet published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := a.store.Outbox.FindUnpublished(cmd.Context(), a.cfg.Outbox.BatchSize)
			if err != nil {
				return err
			}
			for _, e := range events {
				fmt.Fprintf(a.out, "%s | %s | %s | retries=%d\n", e.ID, e.EventType, e.AggregateID, e.RetryCount)
			}
			return nil
		},
	}

	ob.AddCommand(relayCmd, pendingCmd)
	return ob
}
