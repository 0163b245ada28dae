package conversation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// coordsRe matches a bare coordinate pair: optional sign, optional decimal
// fraction, optional single space after the comma. Anything else is ordinary
// chat text.
var coordsRe = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?, ?[+-]?[0-9]+(\.[0-9]+)?$`)

// ParseCoordinates reads a "lat,lon" entry trigger.
func ParseCoordinates(text string) (lat, lon float64, ok bool) {
	text = strings.TrimSpace(text)
	if !coordsRe.MatchString(text) {
		return 0, 0, false
	}
	parts := strings.SplitN(text, ",", 2)
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MapsLink wraps a label into a Google Maps anchor for the given point.
func MapsLink(label string, lat, lon float64) string {
	return fmt.Sprintf(`<a href="https://www.google.com/maps/place/%s,%s">%s</a>`,
		formatCoord(lat), formatCoord(lon), label)
}

// renderReport builds the final report message: maps link, bold reward with
// italic task, any extra answer lines, and the reporter attribution.
func renderReport(link, answer, reported, username string) string {
	rows := strings.Split(answer, "\n")
	head := strings.SplitN(rows[0], ",", 2)
	line := "<b>" + head[0] + "</b>"
	if len(head) == 2 {
		line += ",<i>" + head[1] + "</i>"
	}

	out := make([]string, 0, len(rows)+2)
	out = append(out, link, line)
	out = append(out, rows[1:]...)
	out = append(out, reported+" @"+username)
	return strings.Join(out, "\n")
}

// renderUnknown builds the placeholder message of a multi-reward task, with
// the unknown marker in place of the reward.
func renderUnknown(link, answer, unknown, reported, username string) string {
	rows := strings.Split(answer, "\n")
	head := strings.SplitN(rows[0], ",", 2)
	line := "<b>" + unknown + "</b>"
	if len(head) == 2 {
		line += ",<i>" + head[1] + "</i>"
	}

	out := make([]string, 0, len(rows)+2)
	out = append(out, link, line)
	out = append(out, rows[1:]...)
	out = append(out, reported+" @"+username)
	return strings.Join(out, "\n")
}

// encodeSelection packs a reward candidate into callback payload form:
// reward, longitude, latitude, point-of-interest name, location message id.
func encodeSelection(reward string, lon, lat float64, pokestop string, locationID int) string {
	return strings.Join([]string{
		reward,
		formatCoord(lon),
		formatCoord(lat),
		pokestop,
		strconv.Itoa(locationID),
	}, ",")
}

// decodeSelection unpacks a selection payload. The point-of-interest name may
// itself contain commas, so it is rebuilt from the middle parts.
func decodeSelection(payload string) (reward string, lon, lat float64, pokestop string, locationID int, err error) {
	parts := strings.Split(payload, ",")
	if len(parts) < 5 {
		return "", 0, 0, "", 0, fmt.Errorf("conversation: malformed selection payload")
	}
	reward = parts[0]
	if lon, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return "", 0, 0, "", 0, fmt.Errorf("conversation: bad longitude in payload: %w", err)
	}
	if lat, err = strconv.ParseFloat(parts[2], 64); err != nil {
		return "", 0, 0, "", 0, fmt.Errorf("conversation: bad latitude in payload: %w", err)
	}
	if locationID, err = strconv.Atoi(parts[len(parts)-1]); err != nil {
		return "", 0, 0, "", 0, fmt.Errorf("conversation: bad location id in payload: %w", err)
	}
	pokestop = strings.Join(parts[3:len(parts)-1], ",")
	return reward, lon, lat, pokestop, locationID, nil
}
