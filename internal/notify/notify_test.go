package notify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextall/admincore/internal/notify"
)

func TestBus_FansOutToSubscribers(t *testing.T) {
	bus := notify.NewBus()

	var successes, failures, paths []string
	require.NoError(t, bus.OnSuccess(func(msg string) { successes = append(successes, msg) }))
	require.NoError(t, bus.OnError(func(msg string) { failures = append(failures, msg) }))
	require.NoError(t, bus.OnNavigate(func(path string) { paths = append(paths, path) }))

	bus.Success("New Product Created")
	bus.Error("upload failed")
	bus.NavigateTo("/products")

	require.Equal(t, []string{"New Product Created"}, successes)
	require.Equal(t, []string{"upload failed"}, failures)
	require.Equal(t, []string{"/products"}, paths)
}

func TestBus_NoSubscribersIsSafe(t *testing.T) {
	bus := notify.NewBus()
	bus.Success("nothing listens")
	bus.NavigateTo("/products")
}
