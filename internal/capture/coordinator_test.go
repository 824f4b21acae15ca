package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"regexp"
	"sync"
	"testing"
	"time"

	"setsuna/internal/camera"
)

// fakeStore は保存要求を記録するテスト用ストア
type fakeStore struct {
	mu       sync.Mutex
	saved    []savedImage
	failNext bool
}

type savedImage struct {
	imageID string
	format  string
	quality int
	width   int
	height  int
}

func (s *fakeStore) Save(img image.Image, imageID, format string, quality int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext {
		s.failNext = false
		return "", errors.New("テスト用の保存失敗")
	}

	bounds := img.Bounds()
	s.saved = append(s.saved, savedImage{
		imageID: imageID,
		format:  format,
		quality: quality,
		width:   bounds.Dx(),
		height:  bounds.Dy(),
	})

	extension := "png"
	if format == "jpeg" {
		extension = "jpg"
	}
	return imageID + "." + extension, nil
}

// newStartedDummyDevice はダミーモードで開始済みのデバイスを作る
func newStartedDummyDevice(t *testing.T, source string) *camera.Device {
	t.Helper()

	device := camera.NewDevice(source, 0, 0)
	if err := device.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return device
}

func defaultTestDefaults() Defaults {
	return Defaults{Resolution: "320x320", Format: "jpeg", Quality: 95}
}

var imageIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestCoordinator_CaptureWithDefaults(t *testing.T) {
	store := &fakeStore{}
	fleet := camera.NewFleet(newStartedDummyDevice(t, "dummy"), nil)
	coordinator := NewCoordinator(fleet, store, defaultTestDefaults(), "/api/images")

	result, err := coordinator.Capture(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if !imageIDPattern.MatchString(result.ImageID) {
		t.Errorf("Expected 32-char hex image id, got %q", result.ImageID)
	}
	if result.ImageURLOrPath != "/api/images/"+result.ImageID+".jpg" {
		t.Errorf("Unexpected image path: %s", result.ImageURLOrPath)
	}
	if result.Timestamp.Location() != time.UTC {
		t.Errorf("Expected UTC timestamp, got %v", result.Timestamp.Location())
	}
	if result.Images != nil {
		t.Errorf("Expected no fan-out list, got %v", result.Images)
	}

	// 既定値が適用されて保存されていること
	if len(store.saved) != 1 {
		t.Fatalf("Expected 1 saved image, got %d", len(store.saved))
	}
	saved := store.saved[0]
	if saved.width != 320 || saved.height != 320 {
		t.Errorf("Expected 320x320 frame, got %dx%d", saved.width, saved.height)
	}
	if saved.format != "jpeg" || saved.quality != 95 {
		t.Errorf("Expected jpeg/95, got %s/%d", saved.format, saved.quality)
	}
}

func TestCoordinator_CaptureWithExplicitParams(t *testing.T) {
	store := &fakeStore{}
	fleet := camera.NewFleet(newStartedDummyDevice(t, "dummy"), nil)
	coordinator := NewCoordinator(fleet, store, defaultTestDefaults(), "/api/images")

	req := Request{Resolution: "640x480", Format: "png", Quality: 50}
	result, err := coordinator.Capture(context.Background(), req)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if result.ImageURLOrPath != "/api/images/"+result.ImageID+".png" {
		t.Errorf("Unexpected image path: %s", result.ImageURLOrPath)
	}

	saved := store.saved[0]
	if saved.width != 640 || saved.height != 480 {
		t.Errorf("Expected 640x480 frame, got %dx%d", saved.width, saved.height)
	}
	if saved.format != "png" {
		t.Errorf("Expected png, got %s", saved.format)
	}
}

func TestCoordinator_ValidationErrors(t *testing.T) {
	store := &fakeStore{}
	fleet := camera.NewFleet(newStartedDummyDevice(t, "dummy"), nil)
	coordinator := NewCoordinator(fleet, store, defaultTestDefaults(), "/api/images")

	testCases := []struct {
		name string
		req  Request
	}{
		{"不正な解像度", Request{Resolution: "640-480"}},
		{"未対応フォーマット", Request{Format: "gif"}},
		{"品質が範囲外", Request{Quality: 101}},
	}

	for _, tc := range testCases {
		_, err := coordinator.Capture(context.Background(), tc.req)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: Expected ErrValidation, got %v", tc.name, err)
		}
	}

	// 検証エラー時は何も保存されない
	if len(store.saved) != 0 {
		t.Errorf("Expected no saved images, got %d", len(store.saved))
	}
}

func TestCoordinator_PrimaryFailureIsFatal(t *testing.T) {
	store := &fakeStore{}
	// 開始していないデバイスはキャプチャに失敗する
	stopped := camera.NewDevice("dummy", 0, 0)
	fleet := camera.NewFleet(stopped, nil)
	coordinator := NewCoordinator(fleet, store, defaultTestDefaults(), "/api/images")

	_, err := coordinator.Capture(context.Background(), Request{})
	if err == nil {
		t.Fatal("Expected primary capture failure to fail the request")
	}
	if !errors.Is(err, camera.ErrCameraCapture) {
		t.Errorf("Expected ErrCameraCapture, got %v", err)
	}
}

func TestCoordinator_PrimaryStoreFailureIsFatal(t *testing.T) {
	store := &fakeStore{failNext: true}
	fleet := camera.NewFleet(newStartedDummyDevice(t, "dummy"), nil)
	coordinator := NewCoordinator(fleet, store, defaultTestDefaults(), "/api/images")

	if _, err := coordinator.Capture(context.Background(), Request{}); err == nil {
		t.Fatal("Expected primary store failure to fail the request")
	}
}

func TestCoordinator_FanOut(t *testing.T) {
	store := &fakeStore{}
	fleet := camera.NewFleet(
		newStartedDummyDevice(t, "dummy"),
		[]*camera.Device{
			newStartedDummyDevice(t, "simulator"),
			newStartedDummyDevice(t, "placeholder"),
		},
	)
	coordinator := NewCoordinator(fleet, store, defaultTestDefaults(), "/api/images")

	result, err := coordinator.Capture(context.Background(), Request{UseExtra: true})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if len(result.Images) != 3 {
		t.Fatalf("Expected 3 fan-out entries, got %d", len(result.Images))
	}
	for i, item := range result.Images {
		if item.Index != i {
			t.Errorf("Expected index %d, got %d", i, item.Index)
		}
	}

	// トップレベルの値はインデックス0のエントリと一致する
	if result.ImageID != result.Images[0].ImageID {
		t.Errorf("Expected top-level id to mirror index 0, got %s vs %s", result.ImageID, result.Images[0].ImageID)
	}
	if result.ImageURLOrPath != result.Images[0].ImageURLOrPath {
		t.Error("Expected top-level path to mirror index 0")
	}
}

func TestCoordinator_FanOutToleratesSecondaryFailure(t *testing.T) {
	store := &fakeStore{}
	// 2台目の追加カメラは未開始なのでキャプチャに失敗する
	fleet := camera.NewFleet(
		newStartedDummyDevice(t, "dummy"),
		[]*camera.Device{
			newStartedDummyDevice(t, "simulator"),
			camera.NewDevice("extra-bad", 0, 0),
			newStartedDummyDevice(t, "placeholder"),
		},
	)
	coordinator := NewCoordinator(fleet, store, defaultTestDefaults(), "/api/images")

	result, err := coordinator.Capture(context.Background(), Request{UseExtra: true})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	// 失敗した追加カメラは黙って除外され、インデックスは詰められる
	if len(result.Images) != 3 {
		t.Fatalf("Expected 3 fan-out entries, got %d", len(result.Images))
	}
	for i, item := range result.Images {
		if item.Index != i {
			t.Errorf("Expected sequential index %d, got %d", i, item.Index)
		}
	}
}
