package pfalloc

// freeChain holds the free blocks of one size class, most recently freed
// first. A block on a chain is only referenced from here; its payload is
// never used to store the link.
type freeChain struct {
	blocks [][]byte
}

func (c *freeChain) push(b []byte) {
	c.blocks = append(c.blocks, b)
}

func (c *freeChain) pop() []byte {
	n := len(c.blocks)
	if n == 0 {
		return nil
	}
	b := c.blocks[n-1]
	c.blocks[n-1] = nil
	c.blocks = c.blocks[:n-1]
	return b
}

func (c *freeChain) len() int {
	return len(c.blocks)
}

// each visits the blocks from head (next to be reused) to tail.
func (c *freeChain) each(fn func(b []byte)) {
	for i := len(c.blocks) - 1; i >= 0; i-- {
		fn(c.blocks[i])
	}
}

// head returns the block pop would return, leaving it on the chain.
func (c *freeChain) head() []byte {
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[len(c.blocks)-1]
}
