// Package pricing generates the operator rent roll and the lease-term
// pricing shown on the pricing screen.
package pricing

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"
)

const (
	Floors        = 15
	UnitsPerFloor = 10
)

type UnitType string

const (
	Studio   UnitType = "Studio"
	OneBed   UnitType = "1BR"
	TwoBed   UnitType = "2BR"
	ThreeBed UnitType = "3BR"
)

var unitTypes = []UnitType{Studio, OneBed, TwoBed, ThreeBed}

var baseSqft = map[UnitType]int{Studio: 450, OneBed: 650, TwoBed: 950, ThreeBed: 1200}

var baseRent = map[UnitType]int{Studio: 2500, OneBed: 3000, TwoBed: 4200, ThreeBed: 5500}

type Status string

const (
	Occupied  Status = "occupied"
	Vacant    Status = "vacant"
	Available Status = "available"
)

// Terms are the lease lengths, in months, that get a quoted price.
var Terms = []int{3, 6, 9, 12, 15, 18, 21, 24}

// Discount is a move-in special on an unleased unit.
type Discount struct {
	Type    string `json:"type"`
	Amount  int    `json:"amount"`
	DaysOut int    `json:"daysOut"`
}

// Unit is one row of the rent roll.
type Unit struct {
	Number        string      `json:"unit"`
	Floor         int         `json:"floor"`
	Type          UnitType    `json:"type"`
	Sqft          int         `json:"sqft"`
	Status        Status      `json:"status"`
	CurrentRent   int         `json:"currentRent"`
	MarketRent    int         `json:"marketRent"`
	SuggestedRent int         `json:"suggestedRent"`
	MoveOutDate   string      `json:"moveOutDate,omitempty"`
	AvailableDate string      `json:"availableDate,omitempty"`
	Resident      string      `json:"resident,omitempty"`
	LeaseEnd      string      `json:"leaseEnd,omitempty"`
	Discount      *Discount   `json:"discounts,omitempty"`
	Premiums      int         `json:"premiums"`
	Pricing       map[int]int `json:"pricing"`
}

// TypeFor is the unit type at (floor, n).
func TypeFor(floor, n int) UnitType {
	return unitTypes[(floor+n)%len(unitTypes)]
}

// TermPricing quotes rent per lease term: short leases (<= 6 months) pay
// a 100 premium, long ones (>= 18 months) get 50 off.
func TermPricing(rent int) map[int]int {
	out := make(map[int]int, len(Terms))
	for _, term := range Terms {
		adj := 0
		switch {
		case term <= 6:
			adj = 100
		case term >= 18:
			adj = -50
		}
		out[term] = rent + adj
	}
	return out
}

// DiscountFor is the special offered daysOut days before move-in: half a
// month from 40 days out, a full month from 15 days out, nothing closer.
func DiscountFor(marketRent, daysOut int) Discount {
	d := Discount{Type: "Special", DaysOut: daysOut}
	switch {
	case daysOut >= 40:
		d.Amount = marketRent / 2
	case daysOut >= 15:
		d.Amount = marketRent
	}
	return d
}

// Generate builds the full rent roll. Variation in size, rent and
// occupancy comes from rnd so a fixed seed gives a fixed roll.
func Generate(rnd *rand.Rand, now time.Time) []Unit {
	day := func(t time.Time) string { return t.Format("2006-01-02") }
	units := make([]Unit, 0, Floors*UnitsPerFloor)

	for floor := 1; floor <= Floors; floor++ {
		for n := 1; n <= UnitsPerFloor; n++ {
			typ := TypeFor(floor, n)
			u := Unit{
				Number: fmt.Sprintf("%02d%02d", floor, n),
				Floor:  floor,
				Type:   typ,
				Sqft:   baseSqft[typ] + rnd.Intn(100) - 50,
				Status: Occupied,
			}
			u.MarketRent = baseRent[typ] + rnd.Intn(200) - 100

			switch r := rnd.Float64(); {
			case r < 0.04:
				u.Status = Vacant
			case r < 0.08:
				u.Status = Available
			}

			if u.Status == Occupied {
				u.CurrentRent = u.MarketRent - rnd.Intn(100)
				u.Resident = "Resident " + u.Number
				u.LeaseEnd = day(now.Add(time.Duration(rnd.Int63n(int64(365 * 24 * time.Hour)))))
			} else {
				u.SuggestedRent = u.MarketRent - 50
				d := DiscountFor(u.MarketRent, rnd.Intn(60)+15)
				u.Discount = &d
			}
			if u.Status == Available {
				out := now.Add(time.Duration(rnd.Int63n(int64(90 * 24 * time.Hour))))
				u.MoveOutDate = day(out)
				u.AvailableDate = day(out.AddDate(0, 0, 5))
			}
			u.Premiums = rnd.Intn(150)
			u.Pricing = TermPricing(u.MarketRent)
			units = append(units, u)
		}
	}
	return units
}

// Filter keeps units matching search (unit number, type or resident,
// case-insensitive) and status ("all" or empty matches every status).
func Filter(units []Unit, search, status string) []Unit {
	search = strings.ToLower(strings.TrimSpace(search))
	status = strings.ToLower(strings.TrimSpace(status))
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		if status != "" && status != "all" && string(u.Status) != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Number), search) &&
			!strings.Contains(strings.ToLower(string(u.Type)), search) &&
			!strings.Contains(strings.ToLower(u.Resident), search) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Summary aggregates the rent roll.
type Summary struct {
	Total         int              `json:"total"`
	ByStatus      map[Status]int   `json:"byStatus"`
	ByType        map[UnitType]int `json:"byType"`
	OccupancyPct  float64          `json:"occupancyPct"`
	AvgMarketRent int              `json:"avgMarketRent"`
}

func Summarize(units []Unit) Summary {
	s := Summary{
		Total:    len(units),
		ByStatus: map[Status]int{},
		ByType:   map[UnitType]int{},
	}
	if len(units) == 0 {
		return s
	}
	sum := 0
	for _, u := range units {
		s.ByStatus[u.Status]++
		s.ByType[u.Type]++
		sum += u.MarketRent
	}
	s.OccupancyPct = float64(s.ByStatus[Occupied]) * 100 / float64(len(units))
	s.AvgMarketRent = sum / len(units)
	return s
}

// Lookup finds a unit by number.
func Lookup(units []Unit, number string) (Unit, bool) {
	i := slices.IndexFunc(units, func(u Unit) bool { return u.Number == number })
	if i < 0 {
		return Unit{}, false
	}
	return units[i], true
}
