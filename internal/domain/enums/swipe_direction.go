package enums

type SwipeDirection string

const (
	SwipeDirectionRight SwipeDirection = "right"
	SwipeDirectionLeft  SwipeDirection = "left"
)

func DirectionFor(interested bool) SwipeDirection {
	if interested {
		return SwipeDirectionRight
	}
	return SwipeDirectionLeft
}
