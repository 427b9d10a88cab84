package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/snowguard/notifications-service/internal/messaging"
)

const (
	numberOfEvents          = 50_000
	numberOfPushingRoutines = 500
	numberOfUsers           = 1_000
)

var client = redis.NewClient(&redis.Options{
	Addr:     "localhost:6379",
	PoolSize: numberOfPushingRoutines,
})

func main() {
	maxParallelism := make(chan struct{}, numberOfPushingRoutines)
	wg := sync.WaitGroup{}

	t := time.Now()
	for i := 0; i < numberOfEvents; i++ {
		v := i
		maxParallelism <- struct{}{}
		wg.Add(1)
		go func(idx int) {
			defer func() {
				<-maxParallelism
				wg.Done()
			}()
			publishHazardAlert(idx)
		}(v)
	}
	wg.Wait()
	fmt.Printf(time.Since(t).String())
}

func publishHazardAlert(idx int) {
	event := map[string]interface{}{
		"userId":     rand.Intn(numberOfUsers) + 1,
		"hazardType": "black_ice",
		"severity":   rand.Intn(100),
		"location": map[string]float64{
			"lat": 59.3 + rand.Float64(),
			"lng": 18.0 + rand.Float64(),
		},
	}
	b, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	if err = client.Publish(context.Background(), messaging.ChannelHazardAlerts, string(b)).Err(); err != nil {
		fmt.Printf("publish %d failed: %v\n", idx, err)
	}
}
