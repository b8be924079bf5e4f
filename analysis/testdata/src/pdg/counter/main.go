package main

import "sync"

type Counter struct {
	mu    sync.Mutex
	count int
}

func (c *Counter) Incr() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++ // @Dependee(incr)
}

func (c *Counter) Get() int {
	c.mu.Lock()
	n := c.count // @Dependent(incr) @Dependee(n)
	c.mu.Unlock()
	return n // @Dependent(n)
}

type Queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []int
}

func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *Queue) Put(x int) {
	q.mu.Lock()
	q.items = append(q.items, x)
	q.cond.Signal() // @Dependee(signal)
	q.mu.Unlock()
}

func (q *Queue) Take() int {
	q.mu.Lock()
	for len(q.items) == 0 {
		q.cond.Wait() // @Dependent(signal)
	}
	x := q.items[0]
	q.items = q.items[1:]
	q.mu.Unlock()
	return x
}

func main() {
	c := &Counter{}
	q := NewQueue()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		c.Incr()
		q.Put(1)
		wg.Done()
	}()
	println(c.Get()) //pdg:criterion
	println(q.Take())
	wg.Wait()
}
