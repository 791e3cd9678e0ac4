package sim

import "time"

// RiderStats aggregates terminal rider records.
type RiderStats struct {
	Total           int     `json:"riders_total"`
	CompletedRatio  float64 `json:"rider_completed_ratio"`
	CancelledRatio  float64 `json:"rider_cancelled_ratio"`
	AvgTripTime     float64 `json:"rider_time_trip_total_sec"`
	AvgMatchingTime float64 `json:"rider_time_matching_sec"`
	AvgBoardingTime float64 `json:"rider_time_boarding_sec"`
	AvgTravelTime   float64 `json:"rider_time_traveling_sec"`
	// PriceRatio is paid cost over solo baseline across completed riders;
	// below 1 means sharing saved the riders money.
	PriceRatio float64 `json:"rider_price_ratio"`
}

// DriverStats aggregates terminal driver records.
type DriverStats struct {
	Total         int     `json:"drivers_total"`
	InvolvedRatio float64 `json:"driver_involved_ratio"`
	AvgTripTime   float64 `json:"driver_time_trip_total_sec"`
	// DistanceRatio is realised distance over solo baseline; above 1 means
	// detours, compensated by the price ratios below.
	DistanceRatio         float64 `json:"driver_distance_ratio"`
	InvolvedDistanceRatio float64 `json:"driver_distance_involved_ratio"`
	PriceRatio            float64 `json:"driver_price_ratio"`
	InvolvedPriceRatio    float64 `json:"driver_price_involved_ratio"`
}

// Summary is the point-in-time stats roll-up of the simulation so far.
type Summary struct {
	Riders  RiderStats  `json:"riders"`
	Drivers DriverStats `json:"drivers"`

	SimulatedTime     time.Time `json:"simulated_time"`
	SeatOccupancyRate float64   `json:"seat_occupancy_rate"`
}

// Stats rolls up every rider and driver the world has ever seen. Ratios over
// an empty population report zero.
func (w *World) Stats() Summary {
	var rs RiderStats
	var completed, cancelled int
	var tripTime, matchingTime, boardingTime, travelTime float64
	var baselineSum, paidSum float64
	for _, r := range w.Riders {
		rs.Total++
		if !r.CompletedTime.IsZero() {
			completed++
			tripTime += r.CompletedTime.Sub(r.DepartureTime).Seconds()
			if !r.MatchedTime.IsZero() {
				matchingTime += r.MatchedTime.Sub(r.DepartureTime).Seconds()
				if !r.BoardedTime.IsZero() {
					boardingTime += r.BoardedTime.Sub(r.MatchedTime).Seconds()
					travelTime += r.CompletedTime.Sub(r.BoardedTime).Seconds()
				}
			}
			baselineSum += r.BaselineDistance
			paidSum += r.CurrentCost
		}
		if !r.CancelledTime.IsZero() {
			cancelled++
		}
	}
	if rs.Total > 0 {
		rs.CompletedRatio = float64(completed) / float64(rs.Total)
		rs.CancelledRatio = float64(cancelled) / float64(rs.Total)
	}
	if completed > 0 {
		n := float64(completed)
		rs.AvgTripTime = tripTime / n
		rs.AvgMatchingTime = matchingTime / n
		rs.AvgBoardingTime = boardingTime / n
		rs.AvgTravelTime = travelTime / n
	}
	if baselineSum > 0 {
		rs.PriceRatio = paidSum / baselineSum
	}

	var ds DriverStats
	var dCompleted, involved int
	var dTripTime float64
	var dDistance, dBaseline, dPaid float64
	var invDistance, invBaseline, invPaid float64
	var totalSeats, totalPassengers int
	for _, d := range w.Drivers {
		ds.Total++
		if d.CompletedTime.IsZero() {
			continue
		}
		dCompleted++
		dTripTime += d.CompletedTime.Sub(d.DepartureTime).Seconds()
		dDistance += d.TotalDistance
		dBaseline += d.BaselineDistance
		dPaid += d.CurrentCost
		totalSeats += d.PassengerSeats
		totalPassengers += len(d.CompletedRiders)
		if len(d.CompletedRiders) > 0 {
			involved++
			invDistance += d.TotalDistance
			invBaseline += d.BaselineDistance
			invPaid += d.CurrentCost
		}
	}
	if ds.Total > 0 {
		ds.InvolvedRatio = float64(involved) / float64(ds.Total)
	}
	if dCompleted > 0 {
		ds.AvgTripTime = dTripTime / float64(dCompleted)
	}
	if dBaseline > 0 {
		ds.DistanceRatio = dDistance / dBaseline
		ds.PriceRatio = dPaid / dBaseline
	}
	if invBaseline > 0 {
		ds.InvolvedDistanceRatio = invDistance / invBaseline
		ds.InvolvedPriceRatio = invPaid / invBaseline
	}

	summary := Summary{Riders: rs, Drivers: ds, SimulatedTime: w.Now}
	if totalSeats > 0 {
		summary.SeatOccupancyRate = float64(totalPassengers) / float64(totalSeats)
	}
	return summary
}
