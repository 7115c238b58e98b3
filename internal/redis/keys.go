package redis

import "fmt"

const ns = "falchi:v1"

func KeyDaySlots(date string) string {
	return fmt.Sprintf("%s:slots:%s:all", ns, date)
}

func KeyDayAvailability(date string) string {
	return fmt.Sprintf("%s:slots:%s:available", ns, date)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelSlotsChanged() string {
	return ns + ":slots:changed"
}

func ChannelOrderCreated() string {
	return ns + ":orders:created"
}
