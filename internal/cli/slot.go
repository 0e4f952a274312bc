package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"propcal/internal/slot"
)

func newSlotCmd() *cobra.Command {
	var (
		bookings []string
		after    string
		duration int
		length   int
		boundary string
	)

	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Print the earliest free start for a day's bookings",
		Example: `  propcal slot --booking 09:00 --booking 10:00 --after 08:30 --duration 90
  propcal slot --booking "2:30 PM" --boundary 18:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			starts := make([]int, 0, len(bookings))
			for _, b := range bookings {
				m, err := slot.ParseClock(b)
				if err != nil {
					return fmt.Errorf("booking %q: %w", b, err)
				}
				starts = append(starts, m)
			}

			lower := 0
			if after != "" {
				m, err := slot.ParseClock(after)
				if err != nil {
					return fmt.Errorf("after %q: %w", after, err)
				}
				lower = m
			}

			limit := 0
			if boundary != "" {
				m, err := slot.ParseClock(boundary)
				if err != nil {
					return fmt.Errorf("boundary %q: %w", boundary, err)
				}
				limit = m
			}

			start, err := slot.NewFinder(limit).Find(slot.BookingIntervals(starts, length), lower, duration)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), slot.FormatClock(start))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&bookings, "booking", nil, "Start of an existing booking (repeatable)")
	cmd.Flags().StringVar(&after, "after", "", "Earliest acceptable start")
	cmd.Flags().IntVar(&duration, "duration", slot.DefaultDuration, "Length of the new booking in minutes")
	cmd.Flags().IntVar(&length, "length", slot.DefaultBookingLength, "Assumed length of each existing booking in minutes")
	cmd.Flags().StringVar(&boundary, "boundary", "", "Latest end of the day (default 23:30)")
	return cmd
}
