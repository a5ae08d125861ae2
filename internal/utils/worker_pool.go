package utils

import (
	"log"
	"sync"
)

// WorkerPool is a fixed-size goroutine pool. Requests queue when all
// workers are busy instead of spawning unbounded goroutines.
type WorkerPool struct {
	JobQueue  chan func()
	WorkerNum int
	wg        sync.WaitGroup
	quit      chan bool
}

var (
	GlobalWorkerPool *WorkerPool
	poolOnce         sync.Once
)

// InitGlobalWorkerPool initializes the process-wide pool once.
func InitGlobalWorkerPool(workerNum int, queueSize int) {
	poolOnce.Do(func() {
		GlobalWorkerPool = NewWorkerPool(workerNum, queueSize)
		GlobalWorkerPool.Start()
	})
}

func NewWorkerPool(workerNum int, queueSize int) *WorkerPool {
	return &WorkerPool{
		JobQueue:  make(chan func(), queueSize),
		WorkerNum: workerNum,
		quit:      make(chan bool),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for {
				select {
				case job := <-p.JobQueue:
					// recover so a panicking job cannot kill the worker
					func() {
						defer func() {
							if r := recover(); r != nil {
								log.Printf("worker %d panic: %v", workerID, r)
							}
						}()
						job()
					}()
				case <-p.quit:
					return
				}
			}
		}(i)
	}
	log.Printf("worker pool started with %d workers", p.WorkerNum)
}

// Submit enqueues a job, blocking while the queue is full.
func (p *WorkerPool) Submit(job func()) {
	p.JobQueue <- job
}

// Stop signals all workers to exit and waits for them.
func (p *WorkerPool) Stop() {
	close(p.quit)
	p.wg.Wait()
}
