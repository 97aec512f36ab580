package registry

import "github.com/landsafe/landsafe/internal/model"

// Lightweight geohash encoding (base32). Buckets serialize the registry's
// check-and-lock per geographic neighborhood: precision 6 cells are roughly
// 1.2 km x 0.6 km, comfortably above parcel scale, so one parcel touches a
// handful of buckets at most.
var geohashBase32 = []rune("0123456789bcdefghjkmnpqrstuvwxyz")

// Cell extents at bucketPrecision, in degrees
const (
	bucketPrecision = 6
	cellLatDegrees  = 0.0055
	cellLngDegrees  = 0.011
)

func encodeGeohash(lat, lng float64, precision int) string {
	latInt := []float64{-90, 90}
	lngInt := []float64{-180, 180}
	bits := []int{16, 8, 4, 2, 1}
	bit := 0
	ch := 0
	even := true
	out := make([]rune, 0, precision)
	for len(out) < precision {
		if even {
			mid := (lngInt[0] + lngInt[1]) / 2
			if lng >= mid {
				ch |= bits[bit]
				lngInt[0] = mid
			} else {
				lngInt[1] = mid
			}
		} else {
			mid := (latInt[0] + latInt[1]) / 2
			if lat >= mid {
				ch |= bits[bit]
				latInt[0] = mid
			} else {
				latInt[1] = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
		} else {
			out = append(out, geohashBase32[ch])
			bit = 0
			ch = 0
		}
	}
	return string(out)
}

// RegionBucket returns the bucket anchoring a polygon's priority record
func RegionBucket(c model.Coordinate) string {
	return encodeGeohash(c.Lat, c.Lng, bucketPrecision)
}

// CoverBuckets enumerates every bucket the bounding box touches, padded by
// one cell so overlaps straddling a bucket edge are still serialized under a
// common lock. Sampling at half-cell steps guarantees no cell is skipped.
func CoverBuckets(b model.Bounds) []string {
	minLat := clampLat(b.MinLat - cellLatDegrees)
	maxLat := clampLat(b.MaxLat + cellLatDegrees)
	minLng := b.MinLng - cellLngDegrees
	maxLng := b.MaxLng + cellLngDegrees

	var out []string
	seen := make(map[string]bool)
	for lat := minLat; ; lat += cellLatDegrees / 2 {
		if lat > maxLat {
			lat = maxLat
		}
		for lng := minLng; ; lng += cellLngDegrees / 2 {
			if lng > maxLng {
				lng = maxLng
			}
			h := encodeGeohash(lat, wrapLng(lng), bucketPrecision)
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
			if lng == maxLng {
				break
			}
		}
		if lat == maxLat {
			break
		}
	}
	return out
}

func clampLat(lat float64) float64 {
	if lat < -90 {
		return -90
	}
	if lat > 90 {
		return 90
	}
	return lat
}

func wrapLng(lng float64) float64 {
	for lng < -180 {
		lng += 360
	}
	for lng > 180 {
		lng -= 360
	}
	return lng
}
