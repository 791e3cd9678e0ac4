package routing

// BoundFunc estimates a lower bound on the remaining cost to complete a
// partial route, given the cities already visited and the city currently
// occupied. Branch-and-bound prunes any partial route whose bound already
// meets or exceeds the best complete route found so far.
type BoundFunc func(ci *cityIndex, visited int, current int, dist DistanceFunc) float64

// SingleLinkBound takes the largest of the direct distance from the current
// city to the end and, over every pickup/dropoff pair with neither city yet
// visited, the direct pickup-to-dropoff distance (the minimal link any
// feasible completion must pay for that pair). Each of these alone is a
// lower bound on the remaining route, but the links may overlap along it, so
// they are not summed; the result never overestimates the true remaining cost.
func SingleLinkBound(ci *cityIndex, visited int, current int, dist DistanceFunc) float64 {
	bound := dist(ci.nodeOf[current], ci.nodeOf[1])
	for i, p := range ci.pairs {
		pickupCity, dropoffCity := 2*i+2, 2*i+3
		pickupDone := visited&(1<<pickupCity) != 0
		dropoffDone := visited&(1<<dropoffCity) != 0
		if !dropoffDone {
			if !pickupDone {
				if link := dist(p.Pickup, p.Dropoff); link > bound {
					bound = link
				}
			}
		}
	}
	return bound
}

// NearestNeighborBound adds the distance to the nearest reachable unvisited
// mandatory city (or to the end, when none remains) to the longest direct
// pickup-to-dropoff link over pairs with neither city yet visited. The route
// must travel at least that far before serving any further city, and that
// pair's link lies after its first stop, so the bound stays admissible.
func NearestNeighborBound(ci *cityIndex, visited int, current int, dist DistanceFunc) float64 {
	bound := 0.0
	nearest := Infinity
	any := false
	for city := 2; city < ci.n(); city++ {
		if visited&(1<<city) != 0 {
			continue
		}
		if isDropoff(city) && visited&(1<<pairedPickup(city)) == 0 {
			continue // not yet reachable: its pickup must come first
		}
		any = true
		d := dist(ci.nodeOf[current], ci.nodeOf[city])
		if d < nearest {
			nearest = d
		}
	}
	if any {
		bound += nearest
	} else {
		bound += dist(ci.nodeOf[current], ci.nodeOf[1])
	}
	longestLink := 0.0
	for i, p := range ci.pairs {
		pickupCity, dropoffCity := 2*i+2, 2*i+3
		if visited&(1<<dropoffCity) == 0 && visited&(1<<pickupCity) == 0 {
			if link := dist(p.Pickup, p.Dropoff); link > longestLink {
				longestLink = link
			}
		}
	}
	return bound + longestLink
}
