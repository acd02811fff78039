package a

func Straight(x int) int { // want Straight:"merges=0 loops=0"
	return x + 1
}

func Branch(x int) int { // want Branch:"merges=1 loops=0"
	y := 0
	if x > 0 {
		y = 1
	} else {
		y = 2
	}
	return y
}

func Loop(n int) int { // want Loop:"merges=1 loops=1"
	s := 0
	for i := 0; i < n; i++ {
		s += i
	}
	return s
}

type Counter struct{ n int }

func (c *Counter) Add(xs []int) { // want Add:"merges=1 loops=1"
	for _, x := range xs {
		c.n += x
	}
}

func closure() func() int {
	i := 0
	return func() int {
		i++
		return i
	}
}
