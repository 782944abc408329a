package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/internal/newsletter"
)

// newsletterCmd groups newsletter commands.
var newsletterCmd = &cobra.Command{
	Use:   "newsletter",
	Short: "Newsletter preview and delivery",
}

var newsletterPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the quarterly report for the current composition",
	RunE:  runNewsletterPreview,
}

var newsletterSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the quarterly report as a ConvertKit broadcast",
	RunE:  runNewsletterSend,
}

var newsletterIndexName string

func init() {
	rootCmd.AddCommand(newsletterCmd)
	newsletterCmd.AddCommand(newsletterPreviewCmd)
	newsletterCmd.AddCommand(newsletterSendCmd)
	newsletterCmd.PersistentFlags().StringVar(&newsletterIndexName, "name", DefaultIndexName, "index name")
}

func buildReportData(ctx context.Context, a *app) (*newsletter.ReportData, error) {
	composition, err := a.repo.CurrentComposition(ctx, newsletterIndexName)
	if err != nil {
		return nil, err
	}
	if len(composition) == 0 {
		return nil, fmt.Errorf("no composition for index %s", newsletterIndexName)
	}

	rebalanceDate := composition[0].RebalanceDate
	data := &newsletter.ReportData{
		IndexName:     newsletterIndexName,
		Quarter:       newsletter.QuarterOf(rebalanceDate),
		RebalanceDate: rebalanceDate,
	}

	for _, row := range composition {
		data.Holdings = append(data.Holdings, newsletter.Holding{
			Ticker:          row.Ticker,
			Name:            row.CompanyName,
			Weight:          row.Weight,
			Rank:            row.Rank,
			SpaceRevenuePct: row.SpaceRevenuePct,
			Segments:        row.Segments,
		})
	}

	latest, err := a.repo.LatestPerformance(ctx, newsletterIndexName)
	if err != nil && !errors.Is(err, index.ErrNotFound) {
		return nil, err
	}
	if latest != nil {
		data.IndexValue = latest.Value

		points, err := a.repo.PerformanceRange(ctx, newsletterIndexName,
			rebalanceDate.AddDate(0, -3, 0), rebalanceDate)
		if err == nil && len(points) > 0 && points[0].Value > 0 {
			data.QuarterReturn = (latest.Value - points[0].Value) / points[0].Value * 100
		}
	}

	return data, nil
}

func runNewsletterPreview(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	data, err := buildReportData(cmd.Context(), a)
	if err != nil {
		return err
	}

	body, err := newsletter.RenderReport(*data)
	if err != nil {
		return err
	}

	fmt.Printf("Subject: %s\n\n%s\n", newsletter.Subject(*data), body)
	return nil
}

func runNewsletterSend(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ck, err := a.newConvertKit()
	if err != nil {
		return err
	}

	data, err := buildReportData(cmd.Context(), a)
	if err != nil {
		return err
	}

	body, err := newsletter.RenderReport(*data)
	if err != nil {
		return err
	}

	broadcast, err := ck.SendBroadcast(cmd.Context(), newsletter.Subject(*data), body)
	if err != nil {
		return err
	}

	fmt.Printf("Broadcast %d sent: %s\n", broadcast.ID, broadcast.Subject)
	return nil
}
