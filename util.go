package hibag

// Choose k from n items can be done in this many ways. Originally derived from
// github.com/limix/bgen /src/util/choose.c
func Choose(n, k int) int {
	if k < 0 || k > n {
		return 0
	} else if k == 1 {
		return n
	}

	ans := 1

	if k > n-k {
		k = n - k
	}

	for j := 1; j <= k; j++ {
		if n%j == 0 {
			ans *= n / j
		} else if ans%j == 0 {
			ans = ans / j * n
		} else {
			ans = (ans * n) / j
		}

		n--
	}

	return ans
}

// NumClassPairs is the number of unordered class pairs, homozygous pairs
// included.
func NumClassPairs(nClass int) int {
	return Choose(nClass+1, 2)
}

// PairIndex is the position of the unordered pair (h1, h2) in a posterior
// table: pairs are laid out row by row with h1 <= h2.
func PairIndex(h1, h2, nClass int) int {
	if h1 > h2 {
		h1, h2 = h2, h1
	}
	return h2 + h1*(2*nClass-h1-1)/2
}
