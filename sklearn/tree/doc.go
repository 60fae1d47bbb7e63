// Package tree implements classification trees grown best-first.
//
// Train grows a tree with at most maxNodes leaves. Instead of expanding
// nodes in depth or breadth order, it always splits the pending leaf whose
// best split has the largest size-weighted impurity reduction. Each node
// evaluates mtry randomly sampled attributes, so the package also serves as
// the base learner of random forests:
//
//	order := tree.SortAttributes(x, tree.InferAttributes(p))
//	t, err := tree.Train(x, y, 64,
//	    tree.WithMtry(int(math.Sqrt(float64(p)))),
//	    tree.WithSampleWeights(bootstrap),
//	    tree.WithAttributeOrder(order),
//	    tree.WithSeed(seed),
//	)
//
// DecisionTreeClassifier wraps Train behind a scikit-learn style estimator
// over gonum matrices.
package tree
