package main

// Load generator for a running server. Start the server with relaxed limits,
// e.g. IOT_RATE_DEVICE_REGISTER=100000/h IOT_RATE_TELEMETRY=100000/m.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	iotGrpc "liyu1981.xyz/device-telemetry-service/pkg/grpc"
)

var maxDevices int = 1000
var samplesPerDevice int = 5
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

var grpcClient *iotGrpc.DeviceIngestClient

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

type device struct {
	serial string
	apiKey string
}

var failures atomic.Int64

func main() {
	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	grpcClient = iotGrpc.NewDeviceIngestClient(conn)

	fmt.Printf("gRPC client created\n")

	token := signup()

	var startTime time.Time
	var usedTime time.Duration

	devices := make([]device, maxDevices)
	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := range maxDevices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			devices[i] = registerDevice(token, fmt.Sprintf("BENCH-%s", uuid.NewString()[:12]))
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"registered %v devices: used time=%v seconds, throughput=%v action/second\n",
		maxDevices, usedTime.Seconds(), float64(maxDevices)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := range maxDevices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range samplesPerDevice {
				postSample(devices[i])
				time.Sleep(time.Duration(10+rndInt(100)) * time.Millisecond)
			}
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	total := maxDevices * samplesPerDevice
	fmt.Printf(
		"ingested %v samples (%v failed): used time=%v seconds, throughput=%v action/second\n",
		total, failures.Load(), usedTime.Seconds(), float64(total)/usedTime.Seconds(),
	)
}

func flipCoin() bool {
	return rndInt(100000)%2 == 0
}

func rndInt(n int32) int32 {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Int31n(n)
}

func rndFloat64(min, max float64, decimal int) float64 {
	rndMu.Lock()
	val := min + rnd.Float64()*(max-min)
	rndMu.Unlock()
	multiplier := math.Pow10(decimal)
	return math.Round(val*multiplier) / multiplier
}

func postJSON(path, token string, payload any, out any) int {
	jsonData, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s%s", httpHostPort, path), bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func signup() string {
	username := "bench-" + uuid.NewString()[:8]
	password := uuid.NewString()

	if code := postJSON("/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}, nil); code != http.StatusCreated {
		log.Fatalf("register account failed with status %v", code)
	}

	var login struct {
		Token string `json:"token"`
	}
	if code := postJSON("/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &login); code != http.StatusOK {
		log.Fatalf("login failed with status %v", code)
	}

	fmt.Printf("signed up as %v\n", username)
	return "Bearer " + login.Token
}

func registerDevice(token, serial string) device {
	var out struct {
		APIKey string `json:"api_key"`
	}
	if code := postJSON("/api/devices/register", token, map[string]string{
		"serial_number": serial,
		"name":          "bench " + serial,
	}, &out); code != http.StatusCreated && code != http.StatusOK {
		log.Fatalf("register device %v failed with status %v", serial, code)
	}
	return device{serial: serial, apiKey: out.APIKey}
}

func samplePayload() map[string]any {
	modes := []string{"OFF", "HEAT", "COOL", "AUTO"}
	return map[string]any{
		"mode":             modes[rndInt(int32(len(modes)))],
		"setpoint_c":       rndFloat64(16.0, 26.0, 1),
		"temp_inside_c":    rndFloat64(5.0, 35.0, 2),
		"temp_outside_c":   rndFloat64(-10.0, 40.0, 2),
		"humidity_percent": rndFloat64(20.0, 80.0, 1),
		"output":           flipCoin(),
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	}
}

func postSample(d device) {
	auth := fmt.Sprintf("Device %s:%s", d.serial, d.apiKey)
	payload := samplePayload()

	if flipCoin() {
		jsonData, _ := json.Marshal(payload)
		req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/telemetry/ingest", httpHostPort), bytes.NewBuffer(jsonData))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", auth)
		req.Header.Set("X-Device-Key", d.serial)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			failures.Add(1)
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			failures.Add(1)
		}
		return
	}

	s, err := structpb.NewStruct(payload)
	if err != nil {
		failures.Add(1)
		return
	}
	ctx := metadata.NewOutgoingContext(context.Background(), metadata.Pairs(
		"authorization", auth,
		"x-device-key", d.serial,
	))
	if _, err := grpcClient.Ingest(ctx, s); err != nil {
		failures.Add(1)
	}
}
