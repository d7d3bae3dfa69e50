//go:build !linux

package raspberry

func openDriver(Config, func(int)) (Driver, error) {
	return nil, ErrNotSupported
}
